package audiosweep

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 12, 20, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rec(id string, createdAt time.Time) Record {
	return Record{Identifier: id, CreatedAt: createdAt}
}

// sequence builds records named ids with one hour between creation times.
func sequence(ids ...string) RecordSet {
	rs := make(RecordSet, len(ids))
	base := time.Date(2024, 11, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range ids {
		rs[i] = rec(id, base.Add(time.Duration(i)*time.Hour))
	}
	return rs
}

type fakeMedia struct {
	pages      []ListPage
	listErrAt  int
	listErr    error
	listCalls  int
	statuses   map[string]string
	deleteErrs map[string][]error
	deleted    []string
	deletes    int
	onDelete   func(id string)
	pingErr    error
	pings      int
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{listErrAt: -1, statuses: map[string]string{}, deleteErrs: map[string][]error{}}
}

func (m *fakeMedia) List(ctx context.Context, req ListRequest) (ListPage, error) {
	call := m.listCalls
	m.listCalls++
	if call == m.listErrAt {
		return ListPage{}, m.listErr
	}
	if call >= len(m.pages) {
		return ListPage{}, errors.New("no more pages")
	}
	return m.pages[call], nil
}

func (m *fakeMedia) Delete(ctx context.Context, resourceType string, ids []string) (map[string]string, error) {
	m.deletes++
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if m.onDelete != nil {
			m.onDelete(id)
		}
		if errs := m.deleteErrs[id]; len(errs) > 0 {
			m.deleteErrs[id] = errs[1:]
			return nil, errs[0]
		}
		status, ok := m.statuses[id]
		if !ok {
			status = StatusDeleted
		}
		out[id] = status
		if status == StatusDeleted {
			m.deleted = append(m.deleted, id)
		}
	}
	return out, nil
}

func (m *fakeMedia) Ping(ctx context.Context) error {
	m.pings++
	return m.pingErr
}

type memStorage struct {
	files map[string][]byte
	puts  int
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (s *memStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	data, ok := s.files[name]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStorage) Put(ctx context.Context, name string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.puts++
	s.files[name] = data
	return nil
}

func (s *memStorage) Location(name string) string { return "mem://" + name }

func (s *memStorage) Type() string { return "memory" }

func (s *memStorage) seed(t *testing.T, name string, rs RecordSet) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, rs))
	s.files[name] = buf.Bytes()
}

func (s *memStorage) records(t *testing.T, name string) RecordSet {
	t.Helper()
	data, ok := s.files[name]
	require.True(t, ok, "%s was not written", name)
	rs, err := ReadRecords(bytes.NewReader(data))
	require.NoError(t, err)
	return rs
}
