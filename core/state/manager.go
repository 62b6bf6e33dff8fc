package state

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"lockstream/core/types"
	"lockstream/storage"
)

// Manager exposes the locker's state: accounts with per-token balances, the
// token registry, role membership and a generic RLP-encoded key/value surface
// used by the native engines. All keys are hashed with keccak256 before they
// reach the underlying database.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager backed by the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256([]byte("kv:"), key)
}

func accountKey(addr []byte) []byte {
	return ethcrypto.Keccak256([]byte("acct:"), addr)
}

func tokenKey(symbol string) []byte {
	return ethcrypto.Keccak256([]byte("token:"), []byte(symbol))
}

func tokenIDKey(id [32]byte) []byte {
	return ethcrypto.Keccak256([]byte("token-id:"), id[:])
}

func roleKey(role string) []byte {
	return []byte("role:" + strings.TrimSpace(role))
}

// --- Accounts ---

// GetAccount loads the account stored under the provided address. Missing
// accounts materialise as empty records so callers never observe nil.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	if len(addr) == 0 {
		return nil, fmt.Errorf("state: address must not be empty")
	}
	data, err := m.db.Get(accountKey(addr))
	if err != nil {
		return nil, err
	}
	account := &types.Account{}
	if len(data) == 0 {
		return account, nil
	}
	if err := rlp.DecodeBytes(data, account); err != nil {
		return nil, err
	}
	return account, nil
}

// PutAccount persists the account under the provided address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if len(addr) == 0 {
		return fmt.Errorf("state: address must not be empty")
	}
	if account == nil {
		account = &types.Account{}
	}
	encoded, err := rlp.EncodeToBytes(account)
	if err != nil {
		return err
	}
	return m.db.Put(accountKey(addr), encoded)
}

// --- Token registry ---

type tokenMetadata struct {
	Symbol   string
	Name     string
	Decimals uint8
}

// TokenID derives the 32-byte incentive identifier for a token symbol.
func TokenID(symbol string) [32]byte {
	normalized := normalizeSymbol(symbol)
	var id [32]byte
	copy(id[:], ethcrypto.Keccak256([]byte(normalized)))
	return id
}

// RegisterToken records token metadata and the identifier index entry. Only
// registered tokens can back incentives; the check plays the role of the
// deployed-code guard on asset addresses.
func (m *Manager) RegisterToken(symbol, name string, decimals uint8) error {
	normalized := normalizeSymbol(symbol)
	if normalized == "" {
		return fmt.Errorf("state: token symbol must not be empty")
	}
	meta := tokenMetadata{Symbol: normalized, Name: strings.TrimSpace(name), Decimals: decimals}
	encoded, err := rlp.EncodeToBytes(meta)
	if err != nil {
		return err
	}
	if err := m.db.Put(tokenKey(normalized), encoded); err != nil {
		return err
	}
	return m.db.Put(tokenIDKey(TokenID(normalized)), []byte(normalized))
}

// TokenExists reports whether the provided token symbol is registered.
func (m *Manager) TokenExists(symbol string) bool {
	normalized := normalizeSymbol(symbol)
	if normalized == "" {
		return false
	}
	data, err := m.db.Get(tokenKey(normalized))
	return err == nil && len(data) > 0
}

// TokenByID resolves an incentive identifier back to its token symbol.
func (m *Manager) TokenByID(id [32]byte) (string, bool) {
	data, err := m.db.Get(tokenIDKey(id))
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// --- Roles ---

// GrantRole adds the address to the role membership list. Granting an
// existing member is a no-op via the append helper's dedup.
func (m *Manager) GrantRole(role string, addr []byte) error {
	if len(addr) == 0 {
		return fmt.Errorf("state: address must not be empty")
	}
	return m.KVAppend(roleKey(role), addr)
}

// HasRole reports whether the address is a member of the role.
func (m *Manager) HasRole(role string, addr []byte) bool {
	if len(addr) == 0 {
		return false
	}
	var members [][]byte
	if err := m.KVGetList(roleKey(role), &members); err != nil {
		return false
	}
	for _, member := range members {
		if bytes.Equal(member, addr) {
			return true
		}
	}
	return false
}

// --- Generic KV ---

// KVPut stores the provided value under the supplied key using RLP encoding.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the
// key existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under the supplied key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.db.Delete(kvKey(key))
}

// KVAppend appends the provided value to the byte slice list stored under the
// supplied key. Duplicate values are ignored to keep indexes deterministic.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	hashed := kvKey(key)
	data, err := m.db.Get(hashed)
	if err != nil {
		return err
	}
	var list [][]byte
	if len(data) > 0 {
		if err := rlp.DecodeBytes(data, &list); err != nil {
			return err
		}
	}
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			return nil
		}
	}
	list = append(list, append([]byte(nil), value...))
	encoded, err := rlp.EncodeToBytes(list)
	if err != nil {
		return err
	}
	return m.db.Put(hashed, encoded)
}

// KVGetList retrieves an RLP-encoded slice stored under the provided key and
// decodes it into the supplied destination slice pointer. When no value is
// present the destination is initialised with an empty slice.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(kvKey(key))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		val := reflect.ValueOf(out)
		if val.Kind() != reflect.Ptr || val.IsNil() {
			return fmt.Errorf("kv: destination must be a non-nil pointer")
		}
		elem := val.Elem()
		if elem.Kind() != reflect.Slice {
			return fmt.Errorf("kv: destination must point to a slice")
		}
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
		return nil
	}
	return rlp.DecodeBytes(data, out)
}
