// Package memory is an in-process implementation of the repository
// interfaces. Transactions stage their writes and apply them on commit,
// re-checking unique keys, so two transactions racing to create the same
// email or (provider, subject) behave like they do against PostgreSQL: one
// commits, the other fails with apperrors.ErrAlreadyExists.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/utafrali/TranslateGo/internal/domain"
	"github.com/utafrali/TranslateGo/internal/repository"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

// Store holds committed rows.
type Store struct {
	mu         sync.RWMutex
	accounts   map[string]domain.Account
	emails     map[string]string // email -> account id
	identities map[string]domain.ExternalIdentity
	subjects   map[identityKey]string // (provider, subject) -> identity id
	jobs       map[string]domain.TranslationJob
}

type identityKey struct{ provider, subject string }

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]domain.Account),
		emails:     make(map[string]string),
		identities: make(map[string]domain.ExternalIdentity),
		subjects:   make(map[identityKey]string),
		jobs:       make(map[string]domain.TranslationJob),
	}
}

// Accounts returns an auto-committing account repository.
func (s *Store) Accounts() repository.AccountRepository {
	return &accountRepo{view: s.direct()}
}

// Identities returns an auto-committing identity repository.
func (s *Store) Identities() repository.IdentityRepository {
	return &identityRepo{view: s.direct()}
}

// Jobs returns a translation job repository.
func (s *Store) Jobs() repository.TranslationJobRepository {
	return &jobRepo{store: s}
}

// WithinTx implements repository.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx := newTx(s)
	if err := fn(ctx, repository.Repositories{
		Accounts:   &accountRepo{view: tx},
		Identities: &identityRepo{view: tx},
	}); err != nil {
		return err
	}
	return tx.commit()
}

// CountAccounts returns the number of committed accounts.
func (s *Store) CountAccounts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// CountIdentities returns the number of committed identities.
func (s *Store) CountIdentities() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.identities)
}

// view is what the repositories read from and write to: either the store
// itself or a transaction's staging area layered over it.
type view interface {
	account(id string) (domain.Account, bool)
	accountIDByEmail(email string) (string, bool)
	identity(id string) (domain.ExternalIdentity, bool)
	identityID(k identityKey) (string, bool)
	identitiesOf(accountID string) []domain.ExternalIdentity
	putAccount(a domain.Account, create bool) error
	putIdentity(i domain.ExternalIdentity, create bool) error
}

type directView struct{ s *Store }

func (s *Store) direct() view { return directView{s: s} }

func (d directView) account(id string) (domain.Account, bool) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	a, ok := d.s.accounts[id]
	return a, ok
}

func (d directView) accountIDByEmail(email string) (string, bool) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	id, ok := d.s.emails[email]
	return id, ok
}

func (d directView) identity(id string) (domain.ExternalIdentity, bool) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	i, ok := d.s.identities[id]
	return i, ok
}

func (d directView) identityID(k identityKey) (string, bool) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	id, ok := d.s.subjects[k]
	return id, ok
}

func (d directView) identitiesOf(accountID string) []domain.ExternalIdentity {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var out []domain.ExternalIdentity
	for _, i := range d.s.identities {
		if i.AccountID == accountID {
			out = append(out, i)
		}
	}
	return out
}

func (d directView) putAccount(a domain.Account, create bool) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	return d.s.applyAccount(a, create)
}

func (d directView) putIdentity(i domain.ExternalIdentity, create bool) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	return d.s.applyIdentity(i, create)
}

// applyAccount must be called with s.mu held.
func (s *Store) applyAccount(a domain.Account, create bool) error {
	prev, exists := s.accounts[a.ID]
	if create && exists {
		return apperrors.AlreadyExists("account", "id", a.ID)
	}
	if !create && !exists {
		return apperrors.NotFound("account", a.ID)
	}
	if owner, taken := s.emails[a.Email]; taken && owner != a.ID {
		return apperrors.AlreadyExists("account", "email", a.Email)
	}
	if exists && prev.Email != a.Email {
		delete(s.emails, prev.Email)
	}
	s.accounts[a.ID] = a
	s.emails[a.Email] = a.ID
	return nil
}

// applyIdentity must be called with s.mu held.
func (s *Store) applyIdentity(i domain.ExternalIdentity, create bool) error {
	k := identityKey{i.Provider, i.Subject}
	if create {
		if _, taken := s.subjects[k]; taken {
			return apperrors.AlreadyExists("external identity", "subject", i.Provider+":"+i.Subject)
		}
		if _, ok := s.accounts[i.AccountID]; !ok {
			return apperrors.NotFound("account", i.AccountID)
		}
		s.subjects[k] = i.ID
	} else if _, ok := s.identities[i.ID]; !ok {
		return apperrors.NotFound("external identity", i.ID)
	}
	s.identities[i.ID] = i
	return nil
}

type op struct {
	account  *domain.Account
	identity *domain.ExternalIdentity
	create   bool
}

// tx stages writes over the committed store. Reads see the transaction's
// own writes first, then committed rows.
type tx struct {
	s          *Store
	ops        []op
	accounts   map[string]domain.Account
	emails     map[string]string
	identities map[string]domain.ExternalIdentity
	subjects   map[identityKey]string
}

func newTx(s *Store) *tx {
	return &tx{
		s:          s,
		accounts:   make(map[string]domain.Account),
		emails:     make(map[string]string),
		identities: make(map[string]domain.ExternalIdentity),
		subjects:   make(map[identityKey]string),
	}
}

func (t *tx) account(id string) (domain.Account, bool) {
	if a, ok := t.accounts[id]; ok {
		return a, true
	}
	return t.s.direct().account(id)
}

func (t *tx) accountIDByEmail(email string) (string, bool) {
	if id, ok := t.emails[email]; ok {
		return id, true
	}
	return t.s.direct().accountIDByEmail(email)
}

func (t *tx) identity(id string) (domain.ExternalIdentity, bool) {
	if i, ok := t.identities[id]; ok {
		return i, true
	}
	return t.s.direct().identity(id)
}

func (t *tx) identityID(k identityKey) (string, bool) {
	if id, ok := t.subjects[k]; ok {
		return id, true
	}
	return t.s.direct().identityID(k)
}

func (t *tx) identitiesOf(accountID string) []domain.ExternalIdentity {
	byID := make(map[string]domain.ExternalIdentity)
	for _, i := range t.s.direct().identitiesOf(accountID) {
		byID[i.ID] = i
	}
	for _, i := range t.identities {
		if i.AccountID == accountID {
			byID[i.ID] = i
		}
	}
	out := make([]domain.ExternalIdentity, 0, len(byID))
	for _, i := range byID {
		out = append(out, i)
	}
	return out
}

func (t *tx) putAccount(a domain.Account, create bool) error {
	if owner, taken := t.accountIDByEmail(a.Email); taken && owner != a.ID {
		return apperrors.AlreadyExists("account", "email", a.Email)
	}
	if _, exists := t.account(a.ID); exists == create {
		if create {
			return apperrors.AlreadyExists("account", "id", a.ID)
		}
		return apperrors.NotFound("account", a.ID)
	}
	t.accounts[a.ID] = a
	t.emails[a.Email] = a.ID
	t.ops = append(t.ops, op{account: &a, create: create})
	return nil
}

func (t *tx) putIdentity(i domain.ExternalIdentity, create bool) error {
	k := identityKey{i.Provider, i.Subject}
	if create {
		if _, taken := t.identityID(k); taken {
			return apperrors.AlreadyExists("external identity", "subject", i.Provider+":"+i.Subject)
		}
		t.subjects[k] = i.ID
	} else if _, ok := t.identity(i.ID); !ok {
		return apperrors.NotFound("external identity", i.ID)
	}
	t.identities[i.ID] = i
	t.ops = append(t.ops, op{identity: &i, create: create})
	return nil
}

// commit replays the staged writes against the store atomically. A unique
// key taken by a transaction that committed in the meantime fails the whole
// commit with apperrors.ErrAlreadyExists and leaves the store unchanged.
func (t *tx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	snapshot := t.s.clone()
	for _, o := range t.ops {
		var err error
		if o.account != nil {
			err = t.s.applyAccount(*o.account, o.create)
		} else {
			err = t.s.applyIdentity(*o.identity, o.create)
		}
		if err != nil {
			t.s.restore(snapshot)
			return err
		}
	}
	return nil
}

type snapshot struct {
	accounts   map[string]domain.Account
	emails     map[string]string
	identities map[string]domain.ExternalIdentity
	subjects   map[identityKey]string
}

func (s *Store) clone() snapshot {
	return snapshot{
		accounts:   maps.Clone(s.accounts),
		emails:     maps.Clone(s.emails),
		identities: maps.Clone(s.identities),
		subjects:   maps.Clone(s.subjects),
	}
}

func (s *Store) restore(snap snapshot) {
	s.accounts = snap.accounts
	s.emails = snap.emails
	s.identities = snap.identities
	s.subjects = snap.subjects
}

func sortIdentities(ids []domain.ExternalIdentity) {
	sort.Slice(ids, func(a, b int) bool {
		if ids[a].CreatedAt.Equal(ids[b].CreatedAt) {
			return ids[a].ID < ids[b].ID
		}
		return ids[a].CreatedAt.Before(ids[b].CreatedAt)
	})
}
