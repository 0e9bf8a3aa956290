package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// bucketName holds the artifact blobs inside a bbolt store
var bucketName = []byte("artifacts")

const boltOpenTimeout = 2 * time.Second

// Names are the blob names of the two artifacts
type Names struct {
	Vectorizer string
	Classifier string
}

// DefaultNames returns the standard artifact names
func DefaultNames() Names {
	return Names{Vectorizer: "vectorizer", Classifier: "classifier"}
}

func (n Names) orDefault() Names {
	d := DefaultNames()
	if n.Vectorizer == "" {
		n.Vectorizer = d.Vectorizer
	}
	if n.Classifier == "" {
		n.Classifier = d.Classifier
	}
	return n
}

// LoadDir loads <dir>/<name>.json for both artifacts
func LoadDir(dir string, names Names) (*Model, error) {
	names = names.orDefault()

	vecRaw, err := os.ReadFile(filepath.Join(dir, names.Vectorizer+".json"))
	if err != nil {
		return nil, fmt.Errorf("read vectorizer: %w", err)
	}
	clfRaw, err := os.ReadFile(filepath.Join(dir, names.Classifier+".json"))
	if err != nil {
		return nil, fmt.Errorf("read classifier: %w", err)
	}

	return decode(vecRaw, clfRaw)
}

// LoadBolt loads both artifacts from a bbolt store
func LoadBolt(path string, names Names) (*Model, error) {
	names = names.orDefault()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("artifact store: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: boltOpenTimeout, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}
	defer func() { _ = db.Close() }()

	var vecRaw, clfRaw []byte
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return errors.New("artifact bucket not found")
		}
		// Values are only valid inside the transaction
		if v := b.Get([]byte(names.Vectorizer)); v != nil {
			vecRaw = append([]byte(nil), v...)
		}
		if v := b.Get([]byte(names.Classifier)); v != nil {
			clfRaw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read artifact store: %w", err)
	}
	if vecRaw == nil {
		return nil, fmt.Errorf("artifact %q not found in store", names.Vectorizer)
	}
	if clfRaw == nil {
		return nil, fmt.Errorf("artifact %q not found in store", names.Classifier)
	}

	return decode(vecRaw, clfRaw)
}

// ImportDir validates the JSON artifacts in dir and writes them into a bbolt store
func ImportDir(dir, storePath string, names Names) error {
	names = names.orDefault()

	// Refuse to import anything that would not load
	if _, err := LoadDir(dir, names); err != nil {
		return err
	}

	vecRaw, err := os.ReadFile(filepath.Join(dir, names.Vectorizer+".json"))
	if err != nil {
		return fmt.Errorf("read vectorizer: %w", err)
	}
	clfRaw, err := os.ReadFile(filepath.Join(dir, names.Classifier+".json"))
	if err != nil {
		return fmt.Errorf("read classifier: %w", err)
	}

	db, err := bolt.Open(storePath, 0o600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}
	defer func() { _ = db.Close() }()

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := b.Put([]byte(names.Vectorizer), vecRaw); err != nil {
			return fmt.Errorf("put vectorizer: %w", err)
		}
		if err := b.Put([]byte(names.Classifier), clfRaw); err != nil {
			return fmt.Errorf("put classifier: %w", err)
		}
		return nil
	})
}

func decode(vecRaw, clfRaw []byte) (*Model, error) {
	var vec Vectorizer
	if err := json.Unmarshal(vecRaw, &vec); err != nil {
		return nil, fmt.Errorf("decode vectorizer: %w", err)
	}
	var clf Classifier
	if err := json.Unmarshal(clfRaw, &clf); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}
	return NewModel(&vec, &clf)
}
