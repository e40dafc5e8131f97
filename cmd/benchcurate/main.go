package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pizzachain/curator/pkg/curate"
	"github.com/pizzachain/curator/pkg/gen"
)

func main() {
	var (
		orders  = flag.Int("orders", 200_000, "orders to generate")
		stores  = flag.Int("stores", 50, "stores to generate")
		days    = flag.Int("days", 30, "days of inventory history")
		items   = flag.Int("max-items", 5, "max items per order")
		fill    = flag.Bool("fill-missing-totals", false, "impute 0 for orders without items")
		jsonOut = flag.Bool("json", false, "emit JSON summary")
		seed    = flag.Uint64("seed", 42, "random seed")
	)
	flag.Parse()

	d, err := gen.Generate(gen.Config{
		Seed:        *seed,
		Orders:      *orders,
		Customers:   *orders/10 + 1,
		Stores:      *stores,
		MaxItems:    *items,
		DaysHistory: *days,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	src := curate.Sources{
		SKU:        d.SKU,
		Discounts:  d.Discounts,
		OrderItems: d.OrderItems,
		Orders:     d.Orders,
		Inventory:  d.Inventory,
		Stores:     d.Stores,
	}
	inRows := 0
	for _, t := range d.Tables() {
		inRows += t.Frame.Rows()
	}

	// Warm up
	runtime.GC()
	time.Sleep(100 * time.Millisecond)

	var msBefore, msAfter runtime.MemStats
	runtime.ReadMemStats(&msBefore)
	start := time.Now()
	out, err := curate.Transform(context.Background(), src, curate.WithFilledTotals(*fill))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	elapsed := time.Since(start)
	runtime.ReadMemStats(&msAfter)

	outRows := map[string]int{}
	for _, ds := range out.Datasets() {
		outRows[ds.Name] = ds.Frame.Rows()
	}
	rowsPerSec := float64(inRows) / elapsed.Seconds()
	summary := map[string]any{
		"input_rows":            inRows,
		"output_rows":           outRows,
		"elapsed_ms":            elapsed.Milliseconds(),
		"rows_per_sec":          rowsPerSec,
		"mem_alloc_bytes":       msAfter.Alloc,
		"mem_total_alloc_bytes": msAfter.TotalAlloc - msBefore.TotalAlloc,
		"gc_num":                msAfter.NumGC - msBefore.NumGC,
	}

	if *jsonOut {
		b, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Printf("Input rows: %d\n", inRows)
	for _, ds := range out.Datasets() {
		fmt.Printf("  %-16s %d rows\n", ds.Name, ds.Frame.Rows())
	}
	fmt.Printf("Elapsed: %s\n", elapsed)
	fmt.Printf("Throughput: %.0f rows/s\n", rowsPerSec)
	fmt.Printf("Current Alloc: %d MB\n", msAfter.Alloc/1024/1024)
	fmt.Printf("Total Alloc (delta): %d MB\n", (msAfter.TotalAlloc-msBefore.TotalAlloc)/1024/1024)
	fmt.Printf("GC cycles (delta): %d\n", msAfter.NumGC-msBefore.NumGC)
}
