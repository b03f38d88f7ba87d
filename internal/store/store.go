// Package store provides durable keyed storage for analysis trees and
// versioned node assessments, backed by BadgerDB.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okravets/shepard/internal/model"
)

// ErrNotFound is returned when no record exists for a key
var ErrNotFound = errors.New("store: not found")

// Config holds store configuration
type Config struct {
	// Dir is the directory for database files. Ignored when InMemory is true.
	Dir string

	// InMemory disables disk persistence. Used in tests.
	InMemory bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *zap.Logger
}

// Store is the durable tree/assessment store
type Store struct {
	db *badger.DB
}

// Open opens the store, creating the directory if needed
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{sugar: cfg.Logger.Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Key layout:
//
//	tree:<rootID>                      latest tree for a root
//	assessment:<opinionID>             latest assessment for an opinion
//	assessment:<opinionID>:<version>   immutable version record

func treeKey(rootID string) []byte {
	return []byte("tree:" + rootID)
}

func assessmentKey(opinionID string) []byte {
	return []byte("assessment:" + opinionID)
}

func assessmentVersionKey(opinionID, version string) []byte {
	return []byte("assessment:" + opinionID + ":" + version)
}

// PutTree upserts the tree snapshot for its root. Called after every
// completed level so a crash resumes from the last persisted depth.
func (s *Store) PutTree(tree *model.AnalysisTree) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshal tree: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(treeKey(tree.RootOpinionID), data)
	})
	if err != nil {
		return fmt.Errorf("put tree: %w", err)
	}
	return nil
}

// GetTree returns the latest tree for a root, or ErrNotFound
func (s *Store) GetTree(rootID string) (*model.AnalysisTree, error) {
	var tree model.AnalysisTree
	if err := s.getJSON(treeKey(rootID), &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// DeleteTree removes the cached tree for a root. Node assessments are keyed
// independently and survive tree deletion.
func (s *Store) DeleteTree(rootID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(treeKey(rootID))
	})
}

// PutAssessment writes a new immutable version of an opinion's assessment and
// points the latest key at it. The assigned version id is set on the record.
func (s *Store) PutAssessment(a *model.NodeAssessment) error {
	if a.Version == "" {
		a.Version = uuid.NewString()
	}
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = time.Now().UTC()
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(assessmentVersionKey(a.OpinionID, a.Version), data); err != nil {
			return err
		}
		return txn.Set(assessmentKey(a.OpinionID), data)
	})
	if err != nil {
		return fmt.Errorf("put assessment: %w", err)
	}
	return nil
}

// GetAssessment returns the latest assessment for an opinion, or ErrNotFound
func (s *Store) GetAssessment(opinionID string) (*model.NodeAssessment, error) {
	var a model.NodeAssessment
	if err := s.getJSON(assessmentKey(opinionID), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAssessmentVersion returns a specific historical version
func (s *Store) GetAssessmentVersion(opinionID, version string) (*model.NodeAssessment, error) {
	var a model.NodeAssessment
	if err := s.getJSON(assessmentVersionKey(opinionID, version), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) getJSON(key []byte, dest interface{}) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

// badgerLogger adapts zap to BadgerDB's Logger interface
type badgerLogger struct {
	sugar *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}
