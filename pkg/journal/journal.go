package journal

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/qnkhuat/castedit/pkg/editor"
)

const (
	// Bucket names
	BEDITS      string = "EDITS"
	BRECORDINGS string = "RECORDINGS"
)

var ErrNotFound = errors.New("edit not found")

// Entry describes one edit run.
type Entry struct {
	Id             uint64             `json:"id"`
	RunID          string             `json:"runId"`
	Input          string             `json:"input"`
	Output         string             `json:"output"`
	InputDigest    string             `json:"inputDigest"`  // blake2b-256 of the input as stored, compression included
	OutputDigest   string             `json:"outputDigest"` // blake2b-256 of the output as stored
	Operations     []editor.Operation `json:"operations"`
	Events         int                `json:"events"`
	DurationBefore float64            `json:"durationBefore"`
	DurationAfter  float64            `json:"durationAfter"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// NewEntry fills the run id, timestamps and digests of an edit run.
func NewEntry(input, output string, before, after []byte, ops []editor.Operation) Entry {
	return Entry{
		RunID:        uuid.New().String(),
		Input:        input,
		Output:       output,
		InputDigest:  Digest(before),
		OutputDigest: Digest(after),
		Operations:   ops,
		CreatedAt:    time.Now().UTC(),
	}
}

// Digest is the hex blake2b-256 of data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type DB struct {
	*bolt.DB
}

func Open(path string) (*DB, error) {
	bdb, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open db, %v", err)
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{BEDITS, BRECORDINGS} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("could not create bucket %s: %v", name, err)
			}
		}
		return nil
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("could not set up buckets, %v", err)
	}

	return &DB{bdb}, nil
}

// itob returns an 8-byte big endian representation of v.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

/*
DB
- EDITS
  - EDITID: ENTRY
- RECORDINGS
  - EDITID: edited recording
EDITID is auto increment
*/
func (db *DB) AddEdit(entry Entry, recording []byte) (uint64, error) {
	var id uint64
	err := db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BEDITS))

		// newest record will be at the end of table
		var err error
		id, err = b.NextSequence()
		if err != nil {
			return err
		}
		entry.Id = id

		buf, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := b.Put(itob(id), buf); err != nil {
			return fmt.Errorf("Failed to put: %v", err)
		}
		if recording != nil {
			if err := tx.Bucket([]byte(BRECORDINGS)).Put(itob(id), recording); err != nil {
				return fmt.Errorf("Failed to put recording: %v", err)
			}
		}
		return nil
	})

	return id, err
}

func (db *DB) GetEdit(id uint64) (Entry, error) {
	var entry Entry
	err := db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(BEDITS)).Get(itob(id))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &entry)
	})
	return entry, err
}

// GetRecording returns the stored edited recording of an edit.
func (db *DB) GetRecording(id uint64) ([]byte, error) {
	var data []byte
	err := db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(BRECORDINGS)).Get(itob(id))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

// skip: number of records to skip
// n : number of records to get. Set to 0 to get all
// return a list of edits with the first item is the latest edit
func (db *DB) GetEdits(skip int, n int) ([]Entry, error) {
	entries := []Entry{}

	err := db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(BEDITS)).Cursor()

		count := 0
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if count < skip {
				count += 1
				continue
			}

			// stop when get enough
			if n != 0 && count == (n+skip) {
				break
			}

			entry := Entry{}
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			count += 1
		}
		return nil
	})
	return entries, err
}
