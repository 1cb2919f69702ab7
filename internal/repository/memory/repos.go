package memory

import (
	"context"
	"sort"

	"github.com/utafrali/TranslateGo/internal/domain"
	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

type accountRepo struct{ view view }

func (r *accountRepo) Create(_ context.Context, a *domain.Account) error {
	return r.view.putAccount(*a, true)
}

func (r *accountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	a, ok := r.view.account(id)
	if !ok {
		return nil, apperrors.NotFound("account", id)
	}
	return &a, nil
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	id, ok := r.view.accountIDByEmail(email)
	if !ok {
		return nil, apperrors.NotFound("account", email)
	}
	return r.GetByID(ctx, id)
}

func (r *accountRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := r.view.accountIDByEmail(email)
	return ok, nil
}

func (r *accountRepo) Update(_ context.Context, a *domain.Account) error {
	return r.view.putAccount(*a, false)
}

type identityRepo struct{ view view }

func (r *identityRepo) Create(_ context.Context, i *domain.ExternalIdentity) error {
	return r.view.putIdentity(*i, true)
}

func (r *identityRepo) GetByProviderSubject(_ context.Context, provider, subject string) (*domain.ExternalIdentity, error) {
	id, ok := r.view.identityID(identityKey{provider, subject})
	if !ok {
		return nil, apperrors.NotFound("external identity", provider+":"+subject)
	}
	i, ok := r.view.identity(id)
	if !ok {
		return nil, apperrors.NotFound("external identity", id)
	}
	return &i, nil
}

func (r *identityRepo) UpdateProfile(_ context.Context, i *domain.ExternalIdentity) error {
	cur, ok := r.view.identity(i.ID)
	if !ok {
		return apperrors.NotFound("external identity", i.ID)
	}
	cur.Profile = i.Profile
	cur.UpdatedAt = i.UpdatedAt
	return r.view.putIdentity(cur, false)
}

func (r *identityRepo) ListByAccountID(_ context.Context, accountID string) ([]domain.ExternalIdentity, error) {
	ids := r.view.identitiesOf(accountID)
	if ids == nil {
		ids = []domain.ExternalIdentity{}
	}
	sortIdentities(ids)
	return ids, nil
}

type jobRepo struct{ store *Store }

func (r *jobRepo) Create(_ context.Context, j *domain.TranslationJob) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.jobs[j.ID]; ok {
		return apperrors.AlreadyExists("translation job", "id", j.ID)
	}
	r.store.jobs[j.ID] = *j
	return nil
}

func (r *jobRepo) GetByID(_ context.Context, id string) (*domain.TranslationJob, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	j, ok := r.store.jobs[id]
	if !ok {
		return nil, apperrors.NotFound("translation job", id)
	}
	return &j, nil
}

func (r *jobRepo) ListByAccount(_ context.Context, accountID string, limit, offset int) ([]domain.TranslationJob, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var owned []domain.TranslationJob
	for _, j := range r.store.jobs {
		if j.AccountID == accountID {
			owned = append(owned, j)
		}
	}
	sort.Slice(owned, func(a, b int) bool {
		if owned[a].CreatedAt.Equal(owned[b].CreatedAt) {
			return owned[a].ID < owned[b].ID
		}
		return owned[a].CreatedAt.After(owned[b].CreatedAt)
	})

	total := len(owned)
	if offset >= total {
		return []domain.TranslationJob{}, total, nil
	}
	end := min(offset+limit, total)
	return owned[offset:end], total, nil
}

func (r *jobRepo) Update(_ context.Context, j *domain.TranslationJob) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.jobs[j.ID]; !ok {
		return apperrors.NotFound("translation job", j.ID)
	}
	r.store.jobs[j.ID] = *j
	return nil
}
