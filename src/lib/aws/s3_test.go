package aws

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store := &DiskStore{Root: t.TempDir()}
	ctx := context.Background()

	err := store.Put(ctx, "bugs/7/report.pdf", "application/pdf", 5, strings.NewReader("%PDF-"))
	require.NoError(t, err)

	r, err := store.Open(ctx, "bugs/7/report.pdf")
	require.NoError(t, err)
	b, _ := io.ReadAll(r)
	r.Close()
	assert.Equal(t, "%PDF-", string(b))

	require.NoError(t, store.Delete(ctx, "bugs/7/report.pdf"))
	_, err = store.Open(ctx, "bugs/7/report.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.NoError(t, store.Delete(ctx, "bugs/7/report.pdf"))
}

func TestDiskStoreStaysUnderRoot(t *testing.T) {
	root := t.TempDir()
	store := &DiskStore{Root: root}
	p := store.path("../../etc/passwd")
	assert.True(t, strings.HasPrefix(p, root))
}
