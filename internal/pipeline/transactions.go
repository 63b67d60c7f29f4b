package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/chboudry/finance/internal/coerce"
	"github.com/chboudry/finance/internal/metrics"
	"github.com/chboudry/finance/internal/partition"
	"github.com/chboudry/finance/internal/schema"
	"github.com/chboudry/finance/internal/sink"
)

// Column positions within the validated transactions header. Safe to use
// positionally because ValidateHeaders enforces the exact ordered header
// before any row is read.
const (
	colTimestamp = iota
	colFromBank
	colFromAccount
	colToBank
	colToAccount
	colAmountReceived
	colReceivingCurrency
	colAmountPaid
	colPaymentCurrency
	colPaymentFormat
	colIsLaundering
)

// TransactionsOptions configures one transactions run.
type TransactionsOptions struct {
	// OutDir is the output directory; created on first sink open.
	OutDir string

	// Format selects the output encoding for every sink of the run.
	Format sink.Format

	// SplitByDate groups event/relationship files by the calendar day of
	// each row's timestamp. Rows with unparsable timestamps land in the
	// "unknown" group.
	SplitByDate bool

	// BatchSize overrides the columnar sink's row-buffer size; <=0 keeps
	// the default.
	BatchSize int
}

// Transactions streams transfer records from in and writes transaction node
// files plus from/to relationship files.
//
// Each row is assigned a synthetic transaction identifier equal to its
// 1-based physical line number (the header is line 1, so the first data row
// gets "2"); that numbering matches what the row-count based loader recipe
// has always produced. The node row is always written; a from/to
// relationship row is written only when its account field is non-empty.
//
// Every sink opened during the run is closed on all exit paths.
func Transactions(ctx context.Context, in io.Reader, opt TransactionsOptions) (Stats, error) {
	const job = "transactions"
	start := time.Now()
	stats, err := runTransactions(ctx, in, opt)
	metrics.RecordStep(job, "transform", err, time.Since(start))
	metrics.RecordRows(job, "processed", stats.Rows)
	metrics.RecordRows(job, "node_rows", stats.NodeRows)
	metrics.RecordRows(job, "rel_rows", stats.RelRows)
	metrics.RecordSinks(job, int64(stats.Sinks))
	return stats, err
}

func runTransactions(ctx context.Context, in io.Reader, opt TransactionsOptions) (Stats, error) {
	var stats Stats

	cr := csv.NewReader(in)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return stats, fmt.Errorf("read header: %w", err)
	}
	if err := schema.ValidateHeaders(schema.TransactionHeaders, stripBOM(header)); err != nil {
		return stats, err
	}

	reg := sink.NewRegistry(opt.OutDir, opt.Format, opt.BatchSize)
	defer reg.CloseAll()

	// Without date partitioning the three roles are fixed, so open them up
	// front; the output file set must be complete even when no row ever
	// reaches a relationship sink. Partitioned runs stay lazy because the
	// day keys are only known from the data.
	if !opt.SplitByDate {
		if _, err := reg.Get("transactions", schema.TransactionFields); err != nil {
			return stats, err
		}
		if _, err := reg.Get("transactions_from", schema.FromRelFields); err != nil {
			return stats, err
		}
		if _, err := reg.Get("transactions_to", schema.ToRelFields); err != nil {
			return stats, err
		}
	}

	line := 1 // header consumed
	for {
		if err := canceled(ctx); err != nil {
			return stats, err
		}

		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			// encoding/csv pins FieldsPerRecord to the header width, so a
			// ragged row surfaces here as a fatal schema error.
			return stats, fmt.Errorf("line %d: %w", line, err)
		}

		txID := strconv.Itoa(line)
		timestamp := strings.TrimSpace(rec[colTimestamp])
		fromAccount := strings.TrimSpace(rec[colFromAccount])
		toAccount := strings.TrimSpace(rec[colToAccount])

		key := partition.Key(timestamp, opt.SplitByDate)

		txSink, err := reg.Get(partitionedName(key, "transactions"), schema.TransactionFields)
		if err != nil {
			return stats, err
		}
		row := sink.Row{
			"transaction_id:ID(Transaction)": txID,
			"timestamp":                      timestamp,
			"timestamp_date:datetime":        coerce.Timestamp(timestamp),
			"from_bank:int":                  coerce.Int(rec[colFromBank]),
			"from_account":                   fromAccount,
			"to_bank:int":                    coerce.Int(rec[colToBank]),
			"to_aAccount":                    toAccount,
			"amount_received:float":          coerce.Float(rec[colAmountReceived]),
			"receiving_currency":             strings.TrimSpace(rec[colReceivingCurrency]),
			"amount_paid:float":              coerce.Float(rec[colAmountPaid]),
			"payment_currency":               strings.TrimSpace(rec[colPaymentCurrency]),
			"payment_format":                 strings.TrimSpace(rec[colPaymentFormat]),
			"is_laundering:boolean":          coerce.FlagBool(rec[colIsLaundering]),
		}
		if err := txSink.Write(row); err != nil {
			return stats, err
		}
		stats.NodeRows++

		// A relationship with an empty endpoint is omitted; the node row
		// above is kept.
		if fromAccount != "" {
			fs, err := reg.Get(partitionedName(key, "transactions_from"), schema.FromRelFields)
			if err != nil {
				return stats, err
			}
			err = fs.Write(sink.Row{
				":START_ID(Account)":   fromAccount,
				":END_ID(Transaction)": txID,
			})
			if err != nil {
				return stats, err
			}
			stats.RelRows++
		}
		if toAccount != "" {
			ts, err := reg.Get(partitionedName(key, "transactions_to"), schema.ToRelFields)
			if err != nil {
				return stats, err
			}
			err = ts.Write(sink.Row{
				":START_ID(Transaction)": txID,
				":END_ID(Account)":       toAccount,
			})
			if err != nil {
				return stats, err
			}
			stats.RelRows++
		}

		stats.Rows++
		if stats.Rows%progressEveryN == 0 {
			log.Printf("transactions: line=%d rows=%d sinks=%d", line, stats.Rows, reg.Opened())
		}
	}

	stats.Sinks = reg.Opened()
	if err := reg.CloseAll(); err != nil {
		return stats, err
	}
	return stats, nil
}

// partitionedName builds the base filename for a role within a partition.
// The unpartitioned sentinel carries no prefix.
func partitionedName(key, role string) string {
	if key == partition.All {
		return role
	}
	return key + "_" + role
}
