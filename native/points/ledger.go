package points

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"lockstream/core/events"
)

// ProgramID uniquely identifies a points program.
type ProgramID [32]byte

// Program captures the configuration of a non-transferable points program.
// Points never leave the program: they are spent by the owner or capped
// payers to fund campaigns and awarded to participants as plain credit.
type Program struct {
	ID     ProgramID
	Owner  [20]byte
	Name   string
	Symbol string
}

type ledgerState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// Ledger manages points programs, per-payer spend caps and holder balances.
type Ledger struct {
	st      ledgerState
	emitter events.Emitter
}

// NewLedger creates a points ledger backed by the provided state manager.
func NewLedger(st ledgerState) *Ledger {
	return &Ledger{st: st, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func (l *Ledger) emit(event events.Event) {
	if l == nil || l.emitter == nil {
		return
	}
	l.emitter.Emit(event)
}

func programKey(id ProgramID) []byte {
	return append([]byte("points/program/"), id[:]...)
}

func capKey(id ProgramID, payer [20]byte) []byte {
	key := append([]byte("points/cap/"), id[:]...)
	return append(key, payer[:]...)
}

func balanceKey(id ProgramID, holder [20]byte) []byte {
	key := append([]byte("points/balance/"), id[:]...)
	return append(key, holder[:]...)
}

var counterKey = []byte("points/counter")

// CreateProgram registers a new points program owned by the caller. The
// identifier is derived from the owner, symbol and a monotonic counter so it
// can never collide with an earlier program.
func (l *Ledger) CreateProgram(owner [20]byte, name, symbol string) (ProgramID, error) {
	if l == nil || l.st == nil {
		return ProgramID{}, ErrNilState
	}
	name = strings.TrimSpace(name)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if name == "" {
		return ProgramID{}, fmt.Errorf("%w: name required", ErrInvalidProgram)
	}
	if symbol == "" {
		return ProgramID{}, fmt.Errorf("%w: symbol required", ErrInvalidProgram)
	}
	counter, err := l.nextCounter()
	if err != nil {
		return ProgramID{}, err
	}
	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)
	var id ProgramID
	copy(id[:], ethcrypto.Keccak256(owner[:], []byte(symbol), counterBytes[:]))

	program := &Program{ID: id, Owner: owner, Name: name, Symbol: symbol}
	if err := l.st.KVPut(programKey(id), program); err != nil {
		return ProgramID{}, err
	}
	l.emit(events.PointsProgramCreated{ID: id, Owner: owner, Name: name, Symbol: symbol})
	return id, nil
}

func (l *Ledger) nextCounter() (uint64, error) {
	var counter uint64
	if _, err := l.st.KVGet(counterKey, &counter); err != nil {
		return 0, err
	}
	counter++
	if err := l.st.KVPut(counterKey, counter); err != nil {
		return 0, err
	}
	return counter, nil
}

// SetSpendCap assigns the remaining spend cap for a payer. Only the program
// owner may adjust caps; the owner itself is cap-exempt.
func (l *Ledger) SetSpendCap(caller [20]byte, id ProgramID, payer [20]byte, cap *big.Int) error {
	if l == nil || l.st == nil {
		return ErrNilState
	}
	program, ok, err := l.loadProgram(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProgramNotFound
	}
	if caller != program.Owner {
		return ErrUnauthorized
	}
	if cap == nil || cap.Sign() < 0 {
		return fmt.Errorf("%w: cap must be non-negative", ErrInvalidProgram)
	}
	if err := l.st.KVPut(capKey(id, payer), cap); err != nil {
		return err
	}
	l.emit(events.PointsCapUpdated{ID: id, Payer: payer, Cap: new(big.Int).Set(cap)})
	return nil
}

// IsProgram reports whether the identifier resolves to a points program.
func (l *Ledger) IsProgram(id [32]byte) bool {
	if l == nil || l.st == nil {
		return false
	}
	_, ok, err := l.loadProgram(ProgramID(id))
	return err == nil && ok
}

// GetProgram retrieves a program by its identifier.
func (l *Ledger) GetProgram(id ProgramID) (*Program, bool) {
	program, ok, err := l.loadProgram(id)
	if err != nil || !ok {
		return nil, false
	}
	return program, true
}

// Spend debits the payer's remaining cap to fund a campaign. The program
// owner spends freely; everyone else is limited by their assigned cap.
func (l *Ledger) Spend(id [32]byte, payer [20]byte, amount *big.Int) error {
	if l == nil || l.st == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	program, ok, err := l.loadProgram(ProgramID(id))
	if err != nil {
		return err
	}
	if !ok {
		return ErrProgramNotFound
	}
	if payer != program.Owner {
		remaining, err := l.loadAmount(capKey(program.ID, payer))
		if err != nil {
			return err
		}
		if remaining.Cmp(amount) < 0 {
			return fmt.Errorf("%w: remaining %s, requested %s", ErrCapExceeded, remaining, amount)
		}
		if err := l.st.KVPut(capKey(program.ID, payer), new(big.Int).Sub(remaining, amount)); err != nil {
			return err
		}
	}
	l.emit(events.PointsSpent{ID: program.ID, Payer: payer, Amount: new(big.Int).Set(amount)})
	return nil
}

// Refund restores a payer's spend cap. It exists solely so the campaign
// registry can unwind a pull when a verifier rejects the enclosing operation.
func (l *Ledger) Refund(id [32]byte, payer [20]byte, amount *big.Int) error {
	if l == nil || l.st == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	program, ok, err := l.loadProgram(ProgramID(id))
	if err != nil {
		return err
	}
	if !ok {
		return ErrProgramNotFound
	}
	if payer == program.Owner {
		return nil
	}
	remaining, err := l.loadAmount(capKey(program.ID, payer))
	if err != nil {
		return err
	}
	return l.st.KVPut(capKey(program.ID, payer), new(big.Int).Add(remaining, amount))
}

// Award credits non-transferable points to the recipient. There is no
// transfer surface, so balances only ever grow through this path.
func (l *Ledger) Award(id [32]byte, recipient [20]byte, amount *big.Int) error {
	if l == nil || l.st == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	program, ok, err := l.loadProgram(ProgramID(id))
	if err != nil {
		return err
	}
	if !ok {
		return ErrProgramNotFound
	}
	balance, err := l.loadAmount(balanceKey(program.ID, recipient))
	if err != nil {
		return err
	}
	if err := l.st.KVPut(balanceKey(program.ID, recipient), new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	l.emit(events.PointsAwarded{ID: program.ID, Recipient: recipient, Amount: new(big.Int).Set(amount)})
	return nil
}

// Balance returns the points credited to a holder.
func (l *Ledger) Balance(id ProgramID, holder [20]byte) (*big.Int, error) {
	if l == nil || l.st == nil {
		return nil, ErrNilState
	}
	return l.loadAmount(balanceKey(id, holder))
}

// SpendCap returns the remaining spend cap assigned to a payer.
func (l *Ledger) SpendCap(id ProgramID, payer [20]byte) (*big.Int, error) {
	if l == nil || l.st == nil {
		return nil, ErrNilState
	}
	return l.loadAmount(capKey(id, payer))
}

func (l *Ledger) loadProgram(id ProgramID) (*Program, bool, error) {
	program := new(Program)
	ok, err := l.st.KVGet(programKey(id), program)
	if err != nil || !ok {
		return nil, false, err
	}
	return program, true, nil
}

func (l *Ledger) loadAmount(key []byte) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := l.st.KVGet(key, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}
