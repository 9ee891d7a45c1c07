package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/rotblauer/fleetd/conceptual"
	"github.com/rotblauer/fleetd/params"
	"github.com/rotblauer/fleetd/types/runtrack"
	"go.etcd.io/bbolt"
)

var ErrRunNotFound = errors.New("run not found")

// Store persists runs and drivers in a bbolt database under a data dir.
// A writable Store holds the database's file lock until Close.
type Store struct {
	DB    *bbolt.DB
	rOnly bool
}

func Open(datadir string, readOnly bool) (*Store, error) {
	if err := os.MkdirAll(datadir, 0770); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(filepath.Join(datadir, params.StateDBName), 0600, &bbolt.Options{
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db, rOnly: readOnly}
	if !readOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			for _, b := range [][]byte{params.RunsBucket, params.DriversBucket} {
				if _, err := tx.CreateBucketIfNotExists(b); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) storeKV(bucket, key, data []byte) error {
	if key == nil {
		return fmt.Errorf("storeKV: nil key")
	}
	if data == nil {
		return fmt.Errorf("storeKV: nil data")
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

func (s *Store) readKV(bucket, key []byte) ([]byte, error) {
	buf := bytes.NewBuffer([]byte{})
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		// Gotcha! The value returned by Get is only valid in the scope of the transaction.
		got := b.Get(key)
		if got == nil {
			return nil
		}
		_, err := buf.Write(got)
		return err
	})
	if buf.Len() == 0 {
		return nil, err
	}
	return buf.Bytes(), err
}

func (s *Store) PutRun(r *runtrack.Run) error {
	if r.ID.IsEmpty() {
		return fmt.Errorf("put run: missing id")
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.storeKV(params.RunsBucket, []byte(r.ID), b)
}

func (s *Store) GetRun(id conceptual.RunID) (*runtrack.Run, error) {
	got, err := s.readKV(params.RunsBucket, []byte(id))
	if err != nil {
		return nil, err
	}
	if got == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	r := &runtrack.Run{}
	if err := json.Unmarshal(got, r); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return r, nil
}

// UpdateRun applies fn to the stored run inside a single write transaction.
// The run is stored only if fn returns nil.
func (s *Store) UpdateRun(id conceptual.RunID, fn func(r *runtrack.Run) error) (*runtrack.Run, error) {
	var out *runtrack.Run
	err := s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(params.RunsBucket)
		if err != nil {
			return err
		}
		got := b.Get([]byte(id))
		if got == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		r := &runtrack.Run{}
		if err := json.Unmarshal(got, r); err != nil {
			return fmt.Errorf("decode run %s: %w", id, err)
		}
		if err := fn(r); err != nil {
			return err
		}
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		out = r
		return b.Put([]byte(id), data)
	})
	return out, err
}

// ListRuns returns the runs matching filter, ordered by start time.
func (s *Store) ListRuns(filter runtrack.RunFilter) ([]*runtrack.Run, error) {
	var runs []*runtrack.Run
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(params.RunsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			r := &runtrack.Run{}
			if err := json.Unmarshal(v, r); err != nil {
				return fmt.Errorf("decode run %s: %w", string(k), err)
			}
			if filter.Match(r) {
				runs = append(runs, r)
			}
			return nil
		})
	})
	slices.SortStableFunc(runs, func(a, b *runtrack.Run) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return runs, err
}

func (s *Store) PutDriver(d runtrack.Driver) error {
	if d.ID.IsEmpty() {
		return fmt.Errorf("put driver: missing id")
	}
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.storeKV(params.DriversBucket, []byte(d.ID), b)
}

func (s *Store) Drivers() ([]runtrack.Driver, error) {
	var drivers []runtrack.Driver
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(params.DriversBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			d := runtrack.Driver{}
			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("decode driver %s: %w", string(k), err)
			}
			drivers = append(drivers, d)
			return nil
		})
	})
	return drivers, err
}
