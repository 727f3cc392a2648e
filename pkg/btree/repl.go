package btree

import (
	"fmt"
	"strconv"
	"strings"

	"relindex/pkg/repl"
	"relindex/pkg/rid"
)

// IndexRepl builds a REPL that drives idx's insert, scan, and print
// operations from the command line.
func IndexRepl(idx *Index) *repl.REPL {
	r := repl.NewRepl()
	r.AddCommand("insert", func(payload string, _ *repl.REPLConfig) (string, error) {
		return "", HandleInsert(idx, payload)
	}, "Insert an entry. usage: insert <key> <page_num> <slot_num>")

	r.AddCommand("scan", func(payload string, _ *repl.REPLConfig) (string, error) {
		return HandleScan(idx, payload)
	}, "Scan a range of keys. usage: scan <low_op> <low> <high_op> <high> (ops: gt, gte, lt, lte)")

	r.AddCommand("print", func(payload string, _ *repl.REPLConfig) (string, error) {
		return HandlePrint(idx, payload)
	}, "Pretty-print the tree. usage: print")

	return r
}

// HandleInsert parses "insert <key> <page_num> <slot_num>" and inserts the
// resulting (key, RID) pair.
func HandleInsert(idx *Index, payload string) error {
	fields := strings.Fields(payload)
	if len(fields) != 4 {
		return fmt.Errorf("usage: insert <key> <page_num> <slot_num>")
	}
	key, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("insert error: %v", err)
	}
	pageNum, err := strconv.Atoi(fields[2])
	if err != nil {
		return fmt.Errorf("insert error: %v", err)
	}
	slotNum, err := strconv.Atoi(fields[3])
	if err != nil {
		return fmt.Errorf("insert error: %v", err)
	}
	if err := idx.InsertEntry(int32(key), rid.New(int32(pageNum), int32(slotNum))); err != nil {
		return fmt.Errorf("insert error: %v", err)
	}
	return nil
}

func parseOp(s string) (CompareOp, error) {
	switch s {
	case "gt":
		return OpGT, nil
	case "gte":
		return OpGTE, nil
	case "lt":
		return OpLT, nil
	case "lte":
		return OpLTE, nil
	default:
		return 0, fmt.Errorf("unknown comparison operator %q (want gt, gte, lt, or lte)", s)
	}
}

// HandleScan parses "scan <low_op> <low> <high_op> <high>" and returns every
// RID in that range, one per line.
func HandleScan(idx *Index, payload string) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) != 5 {
		return "", fmt.Errorf("usage: scan <low_op> <low> <high_op> <high>")
	}
	lowOp, err := parseOp(fields[1])
	if err != nil {
		return "", fmt.Errorf("scan error: %v", err)
	}
	low, err := strconv.Atoi(fields[2])
	if err != nil {
		return "", fmt.Errorf("scan error: %v", err)
	}
	highOp, err := parseOp(fields[3])
	if err != nil {
		return "", fmt.Errorf("scan error: %v", err)
	}
	high, err := strconv.Atoi(fields[4])
	if err != nil {
		return "", fmt.Errorf("scan error: %v", err)
	}

	scan, err := idx.StartScan(int32(low), lowOp, int32(high), highOp)
	if err != nil {
		return "", fmt.Errorf("scan error: %v", err)
	}
	defer scan.EndScan()

	var sb strings.Builder
	for {
		r, err := scan.ScanNext()
		if err == ErrIndexScanCompleted {
			break
		}
		if err != nil {
			return sb.String(), fmt.Errorf("scan error: %v", err)
		}
		fmt.Fprintf(&sb, "(%d, %d)\n", r.PageNum, r.SlotNum)
	}
	return sb.String(), nil
}

// HandlePrint pretty-prints the index's tree structure.
func HandlePrint(idx *Index, payload string) (string, error) {
	var sb strings.Builder
	if err := idx.Print(&sb); err != nil {
		return "", fmt.Errorf("print error: %v", err)
	}
	return sb.String(), nil
}
