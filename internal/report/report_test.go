package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sessionMeta() Meta {
	return Meta{
		Version:   "1.0",
		OutputTag: "==ci==",
		Host:      "testhost",
		Profile:   "ci.yml",
		Start:     "01/03/24 10:00:00",
		End:       Unfinished,
		Duration:  Unfinished,
	}
}

func TestDocumentOrderRoundTrip(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	doc.Metadata = sessionMeta()
	doc.Set("Nb_GAN2", &Entry{ID: "GAN2", State: StateOK})
	doc.Set("Nb_GAN1", &Entry{ID: "GAN1", State: StateError})
	doc.Set("Nb_AE1", &Entry{ID: "AE1", State: Unfinished})

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	// Metadata comes first, then the entries in insertion order.
	text := string(data)
	require.Less(t, strings.Index(text, MetadataKey), strings.Index(text, "Nb_GAN2"))
	require.Less(t, strings.Index(text, "Nb_GAN2"), strings.Index(text, "Nb_GAN1"))
	require.Less(t, strings.Index(text, "Nb_GAN1"), strings.Index(text, "Nb_AE1"))

	var reloaded Document
	require.NoError(t, json.Unmarshal(data, &reloaded))
	require.Equal(t, []string{"Nb_GAN2", "Nb_GAN1", "Nb_AE1"}, reloaded.IDs())
	if diff := cmp.Diff(doc.Get("Nb_GAN1"), reloaded.Get("Nb_GAN1")); diff != "" {
		t.Fatalf("entry did not round-trip (-want +got):\n%s", diff)
	}
}

func TestOpenReset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "ci_report.json")
	errPath := filepath.Join(dir, "logs", "ci_ERROR.txt")

	r, err := Open(context.Background(), path, errPath, sessionMeta(), true)
	require.NoError(t, err)
	require.NoError(t, r.Begin("Nb_GAN1", Entry{ID: "GAN1", Dir: "GAN", Src: "01-DCGAN.ipynb"}))

	// A reset session drops the previous entries.
	r2, err := Open(context.Background(), path, errPath, sessionMeta(), true)
	require.NoError(t, err)

	doc, err := Load(r2.Path())
	require.NoError(t, err)
	require.Equal(t, 0, doc.Len())
	require.True(t, doc.Metadata.Reseted)
}

func TestOpenReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ci_report.json")
	errPath := filepath.Join(dir, "ci_ERROR.txt")

	r, err := Open(context.Background(), path, errPath, sessionMeta(), true)
	require.NoError(t, err)
	require.NoError(t, r.Begin("Nb_GAN1", Entry{ID: "GAN1"}))

	_, err = Open(context.Background(), path, errPath, sessionMeta(), false)
	require.NoError(t, err)

	doc, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"Nb_GAN1"}, doc.IDs())
	require.False(t, doc.Metadata.Reseted)
}

func TestBeginFinish(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ci_report.json")
	errPath := filepath.Join(dir, "ci_ERROR.txt")

	r, err := Open(context.Background(), path, errPath, sessionMeta(), true)
	require.NoError(t, err)

	entry := Entry{
		ID:    "GAN1",
		Dir:   "GAN",
		Src:   "01-DCGAN.ipynb",
		Out:   "01-DCGAN==ci==",
		Start: "01/03/24 10:00:00",
	}
	require.NoError(t, r.Begin("Nb_GAN1", entry))

	doc, err := Load(path)
	require.NoError(t, err)
	got := doc.Get("Nb_GAN1")
	require.NotNil(t, got)
	require.Equal(t, Unfinished, got.State)
	require.Equal(t, Unfinished, got.Duration)
	require.Empty(t, got.End)
	require.Equal(t, Unfinished, doc.Metadata.End)

	require.NoError(t, r.Finish("Nb_GAN1", "01-DCGAN==ci==", "01/03/24 10:05:00", "0:05:00", true))

	doc, err = Load(path)
	require.NoError(t, err)
	got = doc.Get("Nb_GAN1")
	require.Equal(t, StateOK, got.State)
	require.Equal(t, "0:05:00", got.Duration)
	require.Equal(t, "01/03/24 10:05:00", got.End)

	_, err = os.Stat(errPath)
	require.True(t, os.IsNotExist(err), "no error file expected for an ok run")
}

func TestFinishFailureAppendsErrorFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ci_report.json")
	errPath := filepath.Join(dir, "ci_ERROR.txt")

	r, err := Open(context.Background(), path, errPath, sessionMeta(), true)
	require.NoError(t, err)

	require.NoError(t, r.Begin("Nb_GAN1", Entry{ID: "GAN1", Dir: "GAN", Src: "01-DCGAN.ipynb"}))
	require.NoError(t, r.Finish("Nb_GAN1", "01-DCGAN==ERROR==", "01/03/24 10:05:00", "0:05:00", false))

	doc, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, StateError, doc.Get("Nb_GAN1").State)
	require.Equal(t, "01-DCGAN==ERROR==", doc.Get("Nb_GAN1").Out)

	data, err := os.ReadFile(errPath)
	require.NoError(t, err)
	require.Equal(t, "See : GAN/01-DCGAN==ERROR== \n", string(data))
}

func TestFinishUnknownRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r, err := Open(context.Background(),
		filepath.Join(dir, "ci_report.json"), filepath.Join(dir, "ci_ERROR.txt"),
		sessionMeta(), true)
	require.NoError(t, err)

	err = r.Finish("Nb_NOPE", "out", "end", "0:00:01", true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "never started")
}

func TestComplete(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r, err := Open(context.Background(),
		filepath.Join(dir, "ci_report.json"), filepath.Join(dir, "ci_ERROR.txt"),
		sessionMeta(), true)
	require.NoError(t, err)

	require.NoError(t, r.Complete("01/03/24 12:00:00", "2:00:00"))

	doc, err := Load(r.Path())
	require.NoError(t, err)
	require.Equal(t, "01/03/24 12:00:00", doc.Metadata.End)
	require.Equal(t, "2:00:00", doc.Metadata.Duration)
}

func TestOpenRemovesStaleErrorFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	errPath := filepath.Join(dir, "ci_ERROR.txt")
	require.NoError(t, os.WriteFile(errPath, []byte("See : GAN/old \n"), 0o640))

	_, err := Open(context.Background(),
		filepath.Join(dir, "ci_report.json"), errPath, sessionMeta(), true)
	require.NoError(t, err)

	_, err = os.Stat(errPath)
	require.True(t, os.IsNotExist(err))
}
