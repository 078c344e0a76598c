package workspace

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrbz/excel-insight-creator/internal/ingest"
)

func TestCurrentBeforeLoad(t *testing.T) {
	_, err := New().Current()
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestIngestReplacesSnapshot(t *testing.T) {
	w := New()
	first, err := w.Ingest(strings.NewReader("a,b\n1,2\n"), "first.csv", ingest.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	cur, err := w.Current()
	require.NoError(t, err)
	assert.Same(t, first, cur)

	second, err := w.Ingest(strings.NewReader("c\nx\ny\n"), "second.csv", ingest.Options{})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	info := second.Info()
	assert.Equal(t, "second.csv", info.Name)
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, []string{"c"}, info.Headers)
}

func TestFailedIngestKeepsPreviousSnapshot(t *testing.T) {
	w := New()
	good, err := w.Ingest(strings.NewReader("a\n1\n"), "good.csv", ingest.Options{})
	require.NoError(t, err)

	for _, tc := range []struct{ name, body string }{
		{"empty.csv", ""},
		{"header-only.csv", "a,b\n"},
		{"doc.pdf", "%PDF"},
	} {
		snap, err := w.Ingest(strings.NewReader(tc.body), tc.name, ingest.Options{})
		assert.Error(t, err, tc.name)
		assert.Nil(t, snap)
		cur, err := w.Current()
		require.NoError(t, err)
		assert.Same(t, good, cur, tc.name)
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	w := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = w.Ingest(strings.NewReader("a\n1\n2\n"), "x.csv", ingest.Options{})
		}()
		go func() {
			defer wg.Done()
			if s, err := w.Current(); err == nil {
				assert.Equal(t, 2, s.Table.Len())
			}
		}()
	}
	wg.Wait()
	_, err := w.Current()
	assert.NoError(t, err)
}
