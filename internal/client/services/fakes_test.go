package services

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/dmitrijs2005/campusmarket/internal/client/models"
	"github.com/dmitrijs2005/campusmarket/internal/client/tokens"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

/*************
 * Fake session API
 *************/

type fakeSessionAPI struct {
	mu sync.Mutex

	LastLoginEmail string
	LastRegister   *models.RegisterRequest
	UserCalls      int

	loginPair tokens.Pair
	loginErr  error

	registerUser models.User
	registerPair tokens.Pair
	registerErr  error

	user    models.User
	userErr error

	profile    models.Profile
	profileErr error

	hooks []func()
}

func (f *fakeSessionAPI) Login(_ context.Context, email, _ string) (tokens.Pair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastLoginEmail = email
	return f.loginPair, f.loginErr
}

func (f *fakeSessionAPI) Register(_ context.Context, req models.RegisterRequest) (models.User, tokens.Pair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastRegister = &req
	return f.registerUser, f.registerPair, f.registerErr
}

func (f *fakeSessionAPI) CurrentUser(context.Context) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UserCalls++
	return f.user, f.userErr
}

func (f *fakeSessionAPI) UpdateProfile(context.Context, models.ProfileUpdate) (models.Profile, error) {
	return f.profile, f.profileErr
}

func (f *fakeSessionAPI) OnAuthExpired(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks = append(f.hooks, fn)
}

func (f *fakeSessionAPI) expire() {
	f.mu.Lock()
	hooks := append([]func(){}, f.hooks...)
	f.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

/*************
 * Fake listing API
 *************/

type fakeListingAPI struct {
	mu sync.Mutex

	ListCalls []url.Values
	SaveCalls []int
	Unsaves   []int

	list   func(ctx context.Context, params url.Values) (models.Page[models.Listing], error)
	save   func(ctx context.Context, id int) error
	unsave func(ctx context.Context, id int) error
	saved  models.Page[models.SavedListing]
}

func (f *fakeListingAPI) ListListings(ctx context.Context, params url.Values) (models.Page[models.Listing], error) {
	f.mu.Lock()
	f.ListCalls = append(f.ListCalls, params)
	fn := f.list
	f.mu.Unlock()
	if fn == nil {
		return models.Page[models.Listing]{}, nil
	}
	return fn(ctx, params)
}

func (f *fakeListingAPI) SaveListing(ctx context.Context, id int) error {
	f.mu.Lock()
	f.SaveCalls = append(f.SaveCalls, id)
	fn := f.save
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, id)
}

func (f *fakeListingAPI) UnsaveListing(ctx context.Context, id int) error {
	f.mu.Lock()
	f.Unsaves = append(f.Unsaves, id)
	fn := f.unsave
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, id)
}

func (f *fakeListingAPI) SavedListings(context.Context) (models.Page[models.SavedListing], error) {
	return f.saved, nil
}

func (f *fakeListingAPI) listCalls() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.ListCalls...)
}

/*************
 * Fake chat API
 *************/

type fakeChatAPI struct {
	session    models.ChatSession
	sessionErr error
	channel    string
	channelErr error

	LastListingID int
}

func (f *fakeChatAPI) ChatToken(context.Context) (models.ChatSession, error) {
	return f.session, f.sessionErr
}

func (f *fakeChatAPI) CreateChannel(_ context.Context, listingID int) (string, error) {
	f.LastListingID = listingID
	return f.channel, f.channelErr
}
