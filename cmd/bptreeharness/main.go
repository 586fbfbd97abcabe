// Command bptreeharness is a small demo binary: it wires a bptree.Tree
// to either an in-memory or a disk-backed buffer pool and runs an
// insert/verify/range-scan/delete/verify workload against it, logging
// each step's progress at Info level. It is not a test harness or a
// graph-dump tool (both named out of scope); it exists only to exercise
// the library end to end from the command line.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/devlights/gomy/errs"

	"github.com/ryogrid/go-bplustree-index/bptree"
	"github.com/ryogrid/go-bplustree-index/bufferpool"
	"github.com/ryogrid/go-bplustree-index/internal/verify"
	"github.com/ryogrid/go-bplustree-index/pageid"
)

func main() {
	var (
		diskPath = flag.String("disk", "", "path to a page file; in-memory pool used when empty")
		count    = flag.Int("n", 1000, "number of keys to insert")
		leafMax  = flag.Int("leaf-max", 64, "leaf_max_size")
		intMax   = flag.Int("internal-max", 64, "internal_max_size")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	pool, closeFn := openPool(*diskPath)
	defer closeFn()

	headerWG, headerID, err := pool.NewPage()
	if err != nil {
		logger.Error("allocate header page", "err", err)
		os.Exit(1)
	}
	headerWG.Release()
	if headerID != pageid.HeaderPageID {
		logger.Warn("header page id differs from the well-known default", "got", headerID.String())
	}

	tree := errs.Panic(bptree.New("harness", headerID, pool, bptree.CompareUint64, *leafMax, *intMax))

	for i := 0; i < *count; i++ {
		key := make([]byte, 8)
		binary.LittleEndian.PutUint64(key, uint64(i))
		value := make([]byte, 8)
		binary.LittleEndian.PutUint64(value, uint64(i*2))
		if err := tree.Insert(key, value); err != nil {
			logger.Error("insert", "key", i, "err", err)
			os.Exit(1)
		}
	}
	logger.Info("inserted", "count", *count)

	if err := verify.Walk(tree, pool, verify.Options{}); err != nil {
		logger.Error("invariant violation after insert", "err", err)
		os.Exit(1)
	}

	it, err := tree.Begin()
	if err != nil {
		logger.Error("begin iterator", "err", err)
		os.Exit(1)
	}
	scanned := 0
	for it.Valid() {
		scanned++
		if err := it.Next(); err != nil {
			logger.Error("iterator next", "err", err)
			break
		}
	}
	it.Close()
	logger.Info("range scan complete", "scanned", scanned)

	for i := 0; i < *count; i += 2 {
		key := make([]byte, 8)
		binary.LittleEndian.PutUint64(key, uint64(i))
		if err := tree.Remove(key); err != nil {
			logger.Error("remove", "key", i, "err", err)
			os.Exit(1)
		}
	}
	logger.Info("removed even keys")

	if err := verify.Walk(tree, pool, verify.Options{}); err != nil {
		logger.Error("invariant violation after remove", "err", err)
		os.Exit(1)
	}

	fmt.Println("ok")
}

func openPool(path string) (bufferpool.Manager, func()) {
	if path == "" {
		p := bufferpool.NewInMemory()
		return p, func() {}
	}
	d := errs.Panic(bufferpool.OpenDiskFile(path))
	return d, func() { d.Close() }
}
