package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"scantransfer/internal/etl"
	"scantransfer/internal/schema"
	"scantransfer/internal/storage/postgres"
	"scantransfer/internal/transformer/builtin"
	"scantransfer/internal/validator"
)

// main checks one report file against its schema without touching any sink.
// Exit codes: 0 clean, 1 invalid rows found, 2 configuration error.
func main() {
	schemaName := flag.String("schema", "", "schema name; default resolves from the file name")
	scanDate := flag.String("scan-date", "", "YYYY-MM-DD fill for rows missing scan_date")
	maxErrors := flag.Int("max-errors", 20, "invalid rows to print before truncating")
	printDDL := flag.String("print-ddl", "", "print CREATE TABLE DDL for the given table name and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: schemacheck [flags] <report-file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	ddlOnly := *printDDL != "" && *schemaName != ""
	if flag.NArg() != 1 && !ddlOnly {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	var sch schema.Schema
	var ok bool
	if *schemaName != "" {
		sch, ok = schema.Schemas[*schemaName]
		if !ok {
			fatalf("unknown schema %q", *schemaName)
		}
	} else {
		sch, ok = schema.ForFile(path)
		if !ok {
			fatalf("no schema matches file name %s; use -schema", path)
		}
	}
	if err := schema.ScanReportTypes.Covers(sch); err != nil {
		fatalf("%v", err)
	}

	if *printDDL != "" {
		sql, err := postgres.CreateTableSQL(*printDDL, sch, schema.ScanReportTypes)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(sql)
		return
	}

	p := etl.NewProcessor("schemacheck")
	batch, skipped, err := p.LoadBatch(context.Background(), path)
	if err != nil {
		fatalf("%v", err)
	}
	if *scanDate != "" {
		batch = builtin.Default{Field: "scan_date", Value: *scanDate}.Apply(batch)
	}

	v := &validator.Validator{Schema: sch, Types: schema.ScanReportTypes}
	result, err := v.Validate(batch)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("%s: schema=%s rows=%d skipped=%d clean=%d invalid=%d\n",
		path, sch.Name, len(batch), skipped, len(result.Clean), len(result.Invalid))

	if len(result.Invalid) == 0 {
		return
	}

	for i, row := range result.Invalid {
		if i >= *maxErrors {
			fmt.Printf("... %d more invalid rows\n", len(result.Invalid)-*maxErrors)
			break
		}
		fmt.Printf("row %d: %s\n", row.RowNumber, row.Diagnostic)
	}

	// Per-column tally of type findings points at systemic issues (a shifted
	// column, a format change) faster than reading rows one by one.
	counts := map[string]int{}
	for _, row := range result.Invalid {
		for _, frag := range row.Fragments {
			if frag.Kind == validator.FragType {
				counts[frag.Column]++
			}
		}
	}
	if len(counts) > 0 {
		cols := make([]string, 0, len(counts))
		for c := range counts {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		fmt.Println("type issues by column:")
		for _, c := range cols {
			fmt.Printf("  %s: %d\n", c, counts[c])
		}
	}
	os.Exit(1)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(2)
}
