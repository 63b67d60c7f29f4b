package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/chboudry/finance/internal/dedup"
	"github.com/chboudry/finance/internal/metrics"
	"github.com/chboudry/finance/internal/schema"
	"github.com/chboudry/finance/internal/sink"
	"github.com/chboudry/finance/internal/textnorm"
)

// Column positions within the validated accounts header.
const (
	colBankName = iota
	colBankID
	colAccountNumber
	colEntityID
	colEntityName
)

// AccountsOptions configures one accounts run.
type AccountsOptions struct {
	// OutDir is the output directory; created before the first row.
	OutDir string

	// Format selects the output encoding for every sink of the run.
	Format sink.Format

	// BatchSize overrides the columnar sink's row-buffer size; <=0 keeps
	// the default.
	BatchSize int

	// Index optionally backs the dedup sets with an on-disk store, for
	// inputs whose distinct-identifier sets outgrow memory. When nil,
	// in-memory sets are used. The caller owns the Index lifecycle.
	Index *dedup.Index

	// FoldNames applies accent-fold cleanup to bank and entity names.
	// Identifiers are never rewritten.
	FoldNames bool
}

// Accounts streams account records from in and writes the three node files
// (banks, entities, accounts) and two relationship files (ownership,
// membership). These files are never date-partitioned.
//
// Each node identifier is emitted at most once, in first-seen input order.
// A row missing any required identifier (bank id, account number, entity
// id) is dropped entirely: emitting a node or relationship with an empty
// identifier would poison downstream references, so valid partial output
// wins over completeness.
func Accounts(ctx context.Context, in io.Reader, opt AccountsOptions) (Stats, error) {
	const job = "accounts"
	start := time.Now()
	stats, err := runAccounts(ctx, in, opt)
	metrics.RecordStep(job, "transform", err, time.Since(start))
	metrics.RecordRows(job, "processed", stats.Rows)
	metrics.RecordRows(job, "skipped", stats.Skipped)
	metrics.RecordRows(job, "node_rows", stats.NodeRows)
	metrics.RecordRows(job, "rel_rows", stats.RelRows)
	metrics.RecordSinks(job, int64(stats.Sinks))
	return stats, err
}

func runAccounts(ctx context.Context, in io.Reader, opt AccountsOptions) (Stats, error) {
	var stats Stats

	cr := csv.NewReader(in)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return stats, fmt.Errorf("read header: %w", err)
	}
	if err := schema.ValidateHeaders(schema.AccountHeaders, stripBOM(header)); err != nil {
		return stats, err
	}

	reg := sink.NewRegistry(opt.OutDir, opt.Format, opt.BatchSize)
	defer reg.CloseAll()

	// The five roles are fixed, so open them up front: the output file set
	// must be complete and predictable even for an empty input.
	banks, err := reg.Get("banks", schema.BankFields)
	if err != nil {
		return stats, err
	}
	entities, err := reg.Get("entities", schema.EntityFields)
	if err != nil {
		return stats, err
	}
	accounts, err := reg.Get("accounts", schema.AccountFields)
	if err != nil {
		return stats, err
	}
	owns, err := reg.Get("entity_owns_account", schema.EntityOwnsAccountFields)
	if err != nil {
		return stats, err
	}
	partOf, err := reg.Get("account_part_of_bank", schema.AccountPartOfBankFields)
	if err != nil {
		return stats, err
	}

	bankSeen, entitySeen, accountSeen := trackers(opt.Index)

	line := 1
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
			return stats, fmt.Errorf("line %d: %w", line, err)
		}

		bankName := strings.TrimSpace(rec[colBankName])
		bankID := strings.TrimSpace(rec[colBankID])
		accountNumber := strings.TrimSpace(rec[colAccountNumber])
		entityID := strings.TrimSpace(rec[colEntityID])
		entityName := strings.TrimSpace(rec[colEntityName])

		if opt.FoldNames {
			bankName = textnorm.Fold(bankName)
			entityName = textnorm.Fold(entityName)
		}

		if bankID == "" || accountNumber == "" || entityID == "" {
			if stats.Skipped < skipLogLimit {
				log.Printf("accounts: line %d: missing required identifier, row dropped", line)
			}
			stats.Skipped++
			continue
		}

		first, err := bankSeen.FirstSeen(bankID)
		if err != nil {
			return stats, err
		}
		if first {
			err := banks.Write(sink.Row{
				"bank_id:ID(Bank){label:Bank}": bankID,
				"bank_name":                    bankName,
			})
			if err != nil {
				return stats, err
			}
			stats.NodeRows++
		}

		first, err = entitySeen.FirstSeen(entityID)
		if err != nil {
			return stats, err
		}
		if first {
			err := entities.Write(sink.Row{
				"entity_id:ID(Entity){label:Entity}": entityID,
				"entity_name":                        entityName,
			})
			if err != nil {
				return stats, err
			}
			stats.NodeRows++
		}

		first, err = accountSeen.FirstSeen(accountNumber)
		if err != nil {
			return stats, err
		}
		if first {
			err := accounts.Write(sink.Row{
				"account_number:ID(Account){label:Account}": accountNumber,
			})
			if err != nil {
				return stats, err
			}
			stats.NodeRows++
		}

		err = owns.Write(sink.Row{
			":START_ID(Entity)": entityID,
			":END_ID(Account)":  accountNumber,
		})
		if err != nil {
			return stats, err
		}
		err = partOf.Write(sink.Row{
			":START_ID(Account)": accountNumber,
			":END_ID(Bank)":      bankID,
		})
		if err != nil {
			return stats, err
		}
		stats.RelRows += 2

		stats.Rows++
		if stats.Rows%progressEveryN == 0 {
			log.Printf("accounts: line=%d rows=%d skipped=%d", line, stats.Rows, stats.Skipped)
		}
	}

	stats.Sinks = reg.Opened()
	if err := reg.CloseAll(); err != nil {
		return stats, err
	}
	return stats, nil
}

// trackers returns the three per-kind dedup trackers, disk-backed when an
// index is supplied.
func trackers(ix *dedup.Index) (bank, entity, account dedup.Tracker) {
	if ix != nil {
		return ix.Kind("bank"), ix.Kind("entity"), ix.Kind("account")
	}
	return dedup.NewSet(), dedup.NewSet(), dedup.NewSet()
}
