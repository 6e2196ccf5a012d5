// Package sqlite provides SQLite database writing for digestion and peak
// matching results
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ChrisMcGann/DigestSim/pkg/digest"
	"github.com/ChrisMcGann/DigestSim/pkg/features"
	"github.com/ChrisMcGann/DigestSim/pkg/logger"
	"github.com/ChrisMcGann/DigestSim/pkg/match"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Date format for RunTable (ISO 8601)
const runDateFormat = time.RFC3339

// RunInfo describes the run recorded in RunTable
type RunInfo struct {
	Command  string
	Rule     string
	Settings string // YAML dump of the effective settings
}

// Writer handles writing results to SQLite database files. All rows of a
// run are written in one transaction, committed by Finalize.
type Writer struct {
	db         *sql.DB
	tx         *sql.Tx
	outputPath string
	runID      string
	info       RunInfo
	started    time.Time
	log        logger.Logger

	proteinStmt  *sql.Stmt
	fragmentStmt *sql.Stmt
	matchStmt    *sql.Stmt
	binStmt      *sql.Stmt

	proteins  int
	fragments int
	matches   int
}

// Option configures a Writer
type Option func(*Writer)

// WithLogger sets the logger. The default logger is used otherwise.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) { w.log = l }
}

// WithRunID overrides the generated run ID
func WithRunID(id string) Option {
	return func(w *Writer) { w.runID = id }
}

// NewWriter creates a new SQLite writer for one run
func NewWriter(outputPath string, info RunInfo, opts ...Option) (*Writer, error) {
	w := &Writer{
		outputPath: outputPath,
		info:       info,
		started:    time.Now(),
	}
	for _, o := range opts {
		o(w)
	}
	if w.runID == "" {
		w.runID = uuid.NewString()
	}
	if w.log == nil {
		w.log = logger.Default()
	}
	w.log = w.log.With("component", "sqlite", "run", w.runID)

	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	w.db = db

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	w.tx, err = db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := w.prepareStatements(); err != nil {
		w.tx.Rollback()
		db.Close()
		return nil, err
	}

	w.log.Debug("database opened", "path", outputPath)
	return w, nil
}

// RunID returns the UUID identifying this run's rows
func (w *Writer) RunID() string {
	return w.runID
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT PRIMARY KEY,
		Command TEXT,
		Rule TEXT,
		Settings TEXT,
		StartDate TEXT,
		EndDate TEXT,
		ProteinCount INTEGER,
		FragmentCount INTEGER,
		MatchCount INTEGER
	);

	CREATE TABLE IF NOT EXISTS ProteinTable (
		ProteinId INTEGER PRIMARY KEY AUTOINCREMENT,
		RunId TEXT REFERENCES RunTable(RunId),
		Name TEXT,
		Description TEXT,
		Sequence TEXT,
		Length INTEGER
	);

	CREATE TABLE IF NOT EXISTS FragmentTable (
		FragmentId INTEGER PRIMARY KEY AUTOINCREMENT,
		RunId TEXT REFERENCES RunTable(RunId),
		ProteinId INTEGER REFERENCES ProteinTable(ProteinId),
		Name TEXT,
		Sequence TEXT,
		Prefix TEXT,
		Suffix TEXT,
		StartResidue INTEGER,
		EndResidue INTEGER,
		Mass DOUBLE,
		MH DOUBLE,
		NET DOUBLE,
		PI DOUBLE,
		Hydrophobicity DOUBLE
	);

	CREATE TABLE IF NOT EXISTS MatchTable (
		RunId TEXT REFERENCES RunTable(RunId),
		FeatureId INTEGER,
		MatchingId INTEGER,
		SLiCScore DOUBLE,
		DelSLiC DOUBLE,
		MassError DOUBLE,
		NETError DOUBLE,
		CandidateCount INTEGER
	);

	CREATE TABLE IF NOT EXISTS BinTable (
		RunId TEXT REFERENCES RunTable(RunId),
		MassStart DOUBLE,
		MassEnd DOUBLE,
		Features INTEGER,
		Matched INTEGER,
		UniqueMatches INTEGER,
		PercentUnique DOUBLE
	);

	CREATE INDEX IF NOT EXISTS FragmentMass ON FragmentTable (Mass);
	CREATE INDEX IF NOT EXISTS MatchFeature ON MatchTable (RunId, FeatureId);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.proteinStmt, err = w.tx.Prepare(`
		INSERT INTO ProteinTable (RunId, Name, Description, Sequence, Length)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare protein statement: %w", err)
	}

	w.fragmentStmt, err = w.tx.Prepare(`
		INSERT INTO FragmentTable (
			RunId, ProteinId, Name, Sequence, Prefix, Suffix,
			StartResidue, EndResidue, Mass, MH, NET, PI, Hydrophobicity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare fragment statement: %w", err)
	}

	w.matchStmt, err = w.tx.Prepare(`
		INSERT INTO MatchTable (
			RunId, FeatureId, MatchingId, SLiCScore, DelSLiC,
			MassError, NETError, CandidateCount
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare match statement: %w", err)
	}

	w.binStmt, err = w.tx.Prepare(`
		INSERT INTO BinTable (
			RunId, MassStart, MassEnd, Features, Matched, UniqueMatches, PercentUnique
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare bin statement: %w", err)
	}

	return nil
}

// WriteProtein writes a protein and returns its ProteinId
func (w *Writer) WriteProtein(name, description, sequence string) (int64, error) {
	res, err := w.proteinStmt.Exec(w.runID, name, description, sequence, len(sequence))
	if err != nil {
		return 0, fmt.Errorf("failed to insert protein %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read protein id: %w", err)
	}
	w.proteins++
	return id, nil
}

// WriteFragments writes the fragments of one protein
func (w *Writer) WriteFragments(proteinID int64, frags []digest.Fragment) error {
	for _, f := range frags {
		_, err := w.fragmentStmt.Exec(
			w.runID,               // RunId
			proteinID,             // ProteinId
			f.Name,                // Name
			f.Sequence,            // Sequence
			residueText(f.Prefix), // Prefix
			residueText(f.Suffix), // Suffix
			f.Start,               // StartResidue
			f.End,                 // EndResidue
			f.Mass,                // Mass
			f.MH,                  // MH
			f.NET,                 // NET
			f.PI,                  // PI
			f.Hydrophobicity,      // Hydrophobicity
		)
		if err != nil {
			return fmt.Errorf("failed to insert fragment %s: %w", f.Name, err)
		}
		w.fragments++
	}
	return nil
}

// WriteMatches writes peak matching results
func (w *Writer) WriteMatches(matches []features.Match) error {
	for _, m := range matches {
		_, err := w.matchStmt.Exec(
			w.runID,
			m.FeatureID,
			m.MatchingID,
			m.SLiCScore,
			m.DelSLiC,
			m.MassErr,
			m.NETErr,
			m.CandidateCount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert match %d/%d: %w", m.FeatureID, m.MatchingID, err)
		}
		w.matches++
	}
	return nil
}

// WriteBins writes a uniqueness summary
func (w *Writer) WriteBins(bins []match.MassBin) error {
	for _, b := range bins {
		_, err := w.binStmt.Exec(w.runID, b.MassStart, b.MassEnd, b.Features, b.Matched, b.Unique, b.PercentUnique())
		if err != nil {
			return fmt.Errorf("failed to insert bin %.1f-%.1f: %w", b.MassStart, b.MassEnd, err)
		}
	}
	return nil
}

// residueText stores an unrecorded flanking residue as NULL
func residueText(r byte) any {
	if r == 0 {
		return nil
	}
	return string(r)
}

// Finalize writes the run row, commits and closes the database
func (w *Writer) Finalize() error {
	_, err := w.tx.Exec(`
		INSERT INTO RunTable (RunId, Command, Rule, Settings, StartDate, EndDate, ProteinCount, FragmentCount, MatchCount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, w.runID, w.info.Command, w.info.Rule, w.info.Settings,
		w.started.Format(runDateFormat), time.Now().Format(runDateFormat),
		w.proteins, w.fragments, w.matches)
	if err != nil {
		w.abort()
		w.db.Close()
		return fmt.Errorf("failed to insert run: %w", err)
	}

	w.closeStatements()
	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit: %w", err)
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	w.log.Info("results written", "path", w.outputPath,
		"proteins", w.proteins, "fragments", w.fragments, "matches", w.matches)
	return nil
}

// Discard rolls the run back and closes the database
func (w *Writer) Discard() error {
	w.abort()
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func (w *Writer) abort() {
	w.closeStatements()
	if err := w.tx.Rollback(); err != nil {
		w.log.Warn("rollback failed", "error", err)
	}
}

func (w *Writer) closeStatements() {
	for _, stmt := range []*sql.Stmt{w.proteinStmt, w.fragmentStmt, w.matchStmt, w.binStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}
