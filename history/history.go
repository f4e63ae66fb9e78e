// Package history keeps a record of committed patch runs in a BoltDB file,
// so an operator can later tell which image was produced from which input
// and with which patch set.
package history

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketRuns = []byte("runs")

type Run struct {
	ID   string
	Time time.Time

	Set    string
	Input  string
	Output string

	Digest string
	Before string
	After  string

	Applied        int
	AlreadyApplied int
}

type Store struct {
	db *bolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRuns)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init history: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends run. Runs are keyed by insertion sequence.
func (s *Store) Record(run Run) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(run); err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		return b.Put(key[:], buf.Bytes())
	})
}

// Runs returns every recorded run, oldest first.
func (s *Store) Runs() ([]Run, error) {
	var runs []Run
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
			var run Run
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&run); err != nil {
				return fmt.Errorf("decode run %x: %w", k, err)
			}
			runs = append(runs, run)
			return nil
		})
	})
	return runs, err
}

// Produced returns the runs whose output digest equals digest.
func (s *Store) Produced(digest string) ([]Run, error) {
	runs, err := s.Runs()
	if err != nil {
		return nil, err
	}

	var result []Run
	for _, r := range runs {
		if r.After == digest {
			result = append(result, r)
		}
	}
	return result, nil
}
