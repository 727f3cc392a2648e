// Command btreeindex opens (or bulk-loads) a B+Tree index over a relation
// file and drops into an interactive REPL for inserting and scanning it.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"relindex/pkg/btree"
	"relindex/pkg/config"
	"relindex/pkg/relation"
)

func setupCloseHandler(idx *btree.Index, log *zap.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		if err := idx.Close(); err != nil {
			log.Error("failed to close index on shutdown", zap.Error(err))
		}
		os.Exit(0)
	}()
}

func main() {
	promptFlag := flag.Bool("c", true, "use prompt?")
	dbFlag := flag.String("db", "data/index.db", "path to the index file")
	relationFlag := flag.String("relation", "", "path to a relation file to bulk-load from (only used when -db doesn't already exist)")
	relationNameFlag := flag.String("relation-name", "", "name of the indexed relation, checked against the index file's stored metadata on reopen (defaults to the -relation file's base name)")
	offsetFlag := flag.Int("offset", 0, "byte offset of the indexed int32 attribute within each tuple")
	verboseFlag := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	relationName := *relationNameFlag
	if relationName == "" && *relationFlag != "" {
		relationName = filepath.Base(*relationFlag)
	}

	var log *zap.Logger
	var err error
	if *verboseFlag {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Println(err)
		return
	}
	defer log.Sync()

	var idx *btree.Index
	if _, statErr := os.Stat(*dbFlag); statErr != nil && *relationFlag != "" {
		rel, err := relation.Open(*relationFlag, relationTupleSize)
		if err != nil {
			log.Error("failed to open relation for bulk load", zap.Error(err))
			return
		}
		defer rel.Close()
		idx, err = btree.Construct(*dbFlag, relationName, rel, int32(*offsetFlag), btree.AttrTypeInt, log)
		if err != nil {
			log.Error("failed to construct index", zap.Error(err))
			return
		}
	} else {
		idx, err = btree.OpenIndex(*dbFlag, relationName, int32(*offsetFlag), btree.AttrTypeInt, log)
		if err != nil {
			log.Error("failed to open index", zap.Error(err))
			return
		}
	}
	defer idx.Close()
	setupCloseHandler(idx, log)

	r := btree.IndexRepl(idx)
	prompt := config.GetPrompt(*promptFlag)
	r.Run(uuid.New(), prompt, nil, nil)
}

// relationTupleSize is the fixed tuple width bulk-loaded relations are
// assumed to use. A real deployment would carry this in relation metadata;
// this index engine only ever bulk-loads from single-int32-key relations.
const relationTupleSize = 16
