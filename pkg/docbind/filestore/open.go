package filestore

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

// Open binds an entity of schema to the file at path. A missing file yields
// a Created entity with a blank tree; an existing one is decoded and yields
// an Unchanged entity. An unknown extension fails with
// [docbind.ErrUnsupportedFormat].
//
// Use [WithEntityOptions] to configure the entity itself.
func Open(ctx context.Context, path string, schema *docbind.Schema, opts ...Option) (*docbind.Entity, error) {
	store, err := New(filepath.Dir(path), opts...)
	if err != nil {
		return nil, err
	}

	if _, err := store.format(filepath.Ext(path)); err != nil {
		return nil, err
	}

	e := docbind.NewEntity(schema, &fileBackend{store: store, path: path}, store.entityOpts...)

	err = e.Initialize(ctx)
	if err != nil {
		return nil, err
	}

	return e, nil
}

// Reformat decodes the file at path and encodes it again in canonical form.
// It reports whether the canonical bytes differ from the file's. A differing
// file is replaced atomically unless dryRun is set. A missing file fails with
// [docbind.ErrRecordNotFound].
func Reformat(ctx context.Context, path string, schema *docbind.Schema, dryRun bool, opts ...Option) (bool, error) {
	store, err := New(filepath.Dir(path), opts...)
	if err != nil {
		return false, err
	}

	root, current, err := store.readFile(ctx, schema, path)
	if err != nil {
		return false, err
	}

	canonical, err := store.encode(path, root)
	if err != nil {
		return false, err
	}

	if bytes.Equal(current, canonical) {
		return false, nil
	}

	if dryRun {
		return true, nil
	}

	return true, store.writeFile(path, schema, canonical)
}

// fileBackend serves exactly one file and ignores keys.
type fileBackend struct {
	store *Store
	path  string
}

func (b *fileBackend) Load(ctx context.Context, s *docbind.Schema, _ docbind.Key) (*docbind.Element, error) {
	return b.store.loadFile(ctx, s, b.path)
}

func (b *fileBackend) Save(ctx context.Context, _ *docbind.Schema, _ docbind.Key, root *docbind.Element, created bool) error {
	return b.store.saveFile(ctx, b.path, root, created)
}

func (b *fileBackend) Delete(ctx context.Context, _ *docbind.Schema, _ docbind.Key) error {
	return b.store.removeFile(ctx, b.path)
}
