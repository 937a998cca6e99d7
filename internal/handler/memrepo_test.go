package handler

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/repository"
)

// インメモリのリポジトリ実装。ルーター全体を通したテストで使う。

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (m *memUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return fmt.Errorf("failed to create user: %w", repository.ErrDuplicateKey)
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *memUserRepo) name(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u.Username
	}
	return ""
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.Session)}
}

func (m *memSessionRepo) Create(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.Data = cloneData(s.Data)
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessionRepo) FindByID(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	cp := *s
	cp.Data = cloneData(s.Data)
	return &cp, nil
}

func (m *memSessionRepo) UpdateData(_ context.Context, id string, data model.SessionData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Data = cloneData(data)
	}
	return nil
}

func (m *memSessionRepo) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// memBoard は投稿とレビューを保持し、PostRepositoryとReviewRepositoryを実装する。
type memBoard struct {
	mu      sync.Mutex
	users   *memUserRepo
	posts   map[string]*model.Post
	order   []string
	reviews map[string]*model.Review
}

func newMemBoard(users *memUserRepo) *memBoard {
	return &memBoard{
		users:   users,
		posts:   make(map[string]*model.Post),
		reviews: make(map[string]*model.Review),
	}
}

var (
	_ repository.UserRepository    = (*memUserRepo)(nil)
	_ repository.SessionRepository = (*memSessionRepo)(nil)
	_ repository.PostRepository    = (*memBoard)(nil)
	_ repository.ReviewRepository  = (*memBoard)(nil)
)

func clonePost(p *model.Post) *model.Post {
	cp := *p
	cp.ReviewIDs = slices.Clone(p.ReviewIDs)
	return &cp
}

func (m *memBoard) List(_ context.Context) ([]model.PostWithAuthor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.PostWithAuthor, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		p := m.posts[m.order[i]]
		out = append(out, model.PostWithAuthor{Post: *clonePost(p), AuthorName: m.users.name(p.AuthorID)})
	}
	return out, nil
}

func (m *memBoard) FindByID(_ context.Context, id string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[id]; ok {
		return clonePost(p), nil
	}
	return nil, nil
}

func (m *memBoard) FindDetail(_ context.Context, id string) (*model.PostDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	detail := &model.PostDetail{Post: *clonePost(p), AuthorName: m.users.name(p.AuthorID)}
	for _, rid := range p.ReviewIDs {
		if r, ok := m.reviews[rid]; ok {
			detail.Reviews = append(detail.Reviews, model.ReviewWithAuthor{Review: *r, AuthorName: m.users.name(r.AuthorID)})
		}
	}
	return detail, nil
}

func (m *memBoard) FindAuthorID(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[id]; ok {
		return p.AuthorID, nil
	}
	return "", nil
}

func (m *memBoard) Create(_ context.Context, p *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[p.ID] = clonePost(p)
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memBoard) Update(_ context.Context, p *model.Post) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.posts[p.ID]
	if !ok {
		return false, nil
	}
	stored.Title, stored.Body, stored.UpdatedAt = p.Title, p.Body, p.UpdatedAt
	return true, nil
}

func (m *memBoard) IncrementViews(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return false, nil
	}
	p.Views++
	return true, nil
}

func (m *memBoard) Delete(_ context.Context, id string, policy model.DeletePolicy) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return false, nil
	}
	if policy == model.DeletePolicyCascade {
		for _, rid := range p.ReviewIDs {
			delete(m.reviews, rid)
		}
	}
	delete(m.posts, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	return true, nil
}

func (m *memBoard) CreateForPost(_ context.Context, postID string, r *model.Review) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return false, nil
	}
	cp := *r
	m.reviews[r.ID] = &cp
	p.ReviewIDs = append(p.ReviewIDs, r.ID)
	return true, nil
}

func (m *memBoard) RemoveFromPost(_ context.Context, postID, reviewID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok || !slices.Contains(p.ReviewIDs, reviewID) {
		return false, nil
	}
	p.ReviewIDs = slices.DeleteFunc(p.ReviewIDs, func(s string) bool { return s == reviewID })
	delete(m.reviews, reviewID)
	return true, nil
}

func (m *memBoard) post(id string) *model.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[id]; ok {
		return clonePost(p)
	}
	return nil
}

func (m *memBoard) review(id string) *model.Review {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reviews[id]; ok {
		cp := *r
		return &cp
	}
	return nil
}

// latestPostID は最後に作成された投稿のIDを返す。
func (m *memBoard) latestPostID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.order) == 0 {
		return ""
	}
	return m.order[len(m.order)-1]
}
