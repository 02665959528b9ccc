package session

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/planadmin/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/planadmin/internal/common"
	"github.com/dmitrijs2005/planadmin/internal/cryptox"
	"github.com/dmitrijs2005/planadmin/internal/dbx"
)

// Persister stores the session record across restarts.
type Persister interface {
	// Load returns (nil, nil) when nothing is stored and an error wrapping
	// ErrCorruptRecord when the record cannot be decoded.
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

var ErrCorruptRecord = errors.New("corrupt session record")

// SQLitePersister keeps the session as one JSON record in the metadata table.
// With a non-empty secret the record is sealed with AES-GCM under a key
// derived from the secret and a per-database random salt.
type SQLitePersister struct {
	db     *sql.DB
	secret []byte

	keyMu   sync.Mutex
	keySalt []byte
	key     []byte
}

func NewSQLitePersister(db *sql.DB, secret string) *SQLitePersister {
	p := &SQLitePersister{db: db}
	if secret != "" {
		p.secret = []byte(secret)
	}
	return p
}

func (p *SQLitePersister) Load(ctx context.Context) (*Session, error) {
	repo := metadata.NewSQLiteRepository(p.db)

	raw, err := repo.Get(ctx, common.SessionMetadataKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	if p.secret != nil {
		salt, err := repo.Get(ctx, common.SessionSaltMetadataKey)
		if err != nil {
			return nil, err
		}
		if salt == nil {
			return nil, fmt.Errorf("%w: missing salt", ErrCorruptRecord)
		}
		if raw, err = cryptox.Open(raw, p.keyFor(salt)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return &s, nil
}

func (p *SQLitePersister) Save(ctx context.Context, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	return dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		if p.secret != nil {
			salt, err := repo.Get(ctx, common.SessionSaltMetadataKey)
			if err != nil {
				return err
			}
			if salt == nil {
				salt = common.GenerateRandByteArray(cryptox.SaltSize)
				if err := repo.Set(ctx, common.SessionSaltMetadataKey, salt); err != nil {
					return err
				}
			}
			if payload, err = cryptox.Seal(payload, p.keyFor(salt)); err != nil {
				return fmt.Errorf("seal session: %w", err)
			}
		}

		return repo.Set(ctx, common.SessionMetadataKey, payload)
	})
}

func (p *SQLitePersister) Clear(ctx context.Context) error {
	repo := metadata.NewSQLiteRepository(p.db)
	return repo.Delete(ctx, common.SessionMetadataKey, common.SessionSaltMetadataKey)
}

// keyFor caches the derived key per salt; each Argon2id run allocates 64 MiB.
func (p *SQLitePersister) keyFor(salt []byte) []byte {
	p.keyMu.Lock()
	defer p.keyMu.Unlock()

	if p.key == nil || !bytes.Equal(p.keySalt, salt) {
		p.key = cryptox.DeriveKey(p.secret, salt)
		p.keySalt = bytes.Clone(salt)
	}
	return p.key
}
