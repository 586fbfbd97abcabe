package bptree

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ryogrid/go-bplustree-index/bufferpool"
	"github.com/ryogrid/go-bplustree-index/pageid"
)

// failingManager returns a fixed error from every Fetch*/NewPage call,
// regardless of the id requested.
type failingManager struct {
	err error
}

func (m *failingManager) FetchRead(pageid.PageID) (bufferpool.ReadGuard, error) {
	return nil, m.err
}

func (m *failingManager) FetchWrite(pageid.PageID) (bufferpool.WriteGuard, error) {
	return nil, m.err
}

func (m *failingManager) FetchBasic(pageid.PageID) (bufferpool.BasicGuard, error) {
	return nil, m.err
}

func (m *failingManager) NewPage() (bufferpool.WriteGuard, pageid.PageID, error) {
	return nil, pageid.Invalid, m.err
}

func (m *failingManager) FreePage(pageid.PageID) error {
	return nil
}

func TestLoggingPoolWarnsOnPoolExhausted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	pool := &loggingPool{Manager: &failingManager{err: bufferpool.ErrPoolExhausted}, log: logger}

	_, err := pool.FetchRead(pageid.PageID(1))
	require.ErrorIs(t, err, bufferpool.ErrPoolExhausted)
	require.Contains(t, buf.String(), "pool error")
	require.Contains(t, buf.String(), "FetchRead")
}

func TestLoggingPoolWarnsOnCorruptPage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	pool := &loggingPool{Manager: &failingManager{err: bufferpool.ErrCorruptPage}, log: logger}

	_, _, err := pool.NewPage()
	require.ErrorIs(t, err, bufferpool.ErrCorruptPage)
	require.Contains(t, buf.String(), "pool error")
	require.Contains(t, buf.String(), "NewPage")
}

func TestLoggingPoolSilentOnUnrelatedError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	pool := &loggingPool{Manager: &failingManager{err: bufferpool.ErrPageNotFound}, log: logger}

	_, err := pool.FetchWrite(pageid.PageID(1))
	require.ErrorIs(t, err, bufferpool.ErrPageNotFound)
	require.Empty(t, buf.String())
}

func TestSetLoggerPropagatesToLoggingPool(t *testing.T) {
	tree, _ := newTestTree(t, 4, 4)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	tree.SetLogger(logger)

	lp, ok := tree.pool.(*loggingPool)
	require.True(t, ok)
	require.Same(t, logger, lp.log)
}
