package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/campusmarket/internal/client/client"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubInputs answers text prompts from texts in order and every password
// prompt with password.
func stubInputs(t *testing.T, texts []string, password string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	queue := append([]string(nil), texts...)
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(queue) == 0 {
			return "", io.EOF
		}
		s := queue[0]
		queue = queue[1:]
		return s, nil
	}
	getPassword = func(string, io.Writer) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

func TestRegister_LocalValidationListsFields(t *testing.T) {
	ta := newTestApp(t, "")
	stubInputs(t, []string{"not-an-email", "Alice", "Physics"}, "short")

	err := ta.Register(context.Background())

	var ve *client.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, ve.Status)
	out := ta.out.String()
	assert.Contains(t, out, "  email: Enter a valid email address")
	assert.Contains(t, out, "  password: Password must be at least 8 characters")
	assert.False(t, ta.isLoggedIn())

	ta.backend.mu.Lock()
	defer ta.backend.mu.Unlock()
	assert.Empty(t, ta.backend.posts)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	ta := newTestApp(t, "")
	calls := 0
	stubInputs(t, []string{"alice@uni.ac.uk", "Alice", "Physics"}, "")
	getPassword = func(string, io.Writer) ([]byte, error) {
		calls++
		if calls == 1 {
			return []byte("password123"), nil
		}
		return []byte("password124"), nil
	}

	err := ta.Register(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Passwords do not match", errorMessage(err))
}

func TestLogin_InputError(t *testing.T) {
	ta := newTestApp(t, "")
	stubInputs(t, nil, goodPassword)

	err := ta.Login(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, ta.isLoggedIn())
}

func TestLogin_PasswordError(t *testing.T) {
	ta := newTestApp(t, "")
	stubInputs(t, []string{"alice@uni.ac.uk"}, "")
	boom := errors.New("no tty")
	getPassword = func(string, io.Writer) ([]byte, error) { return nil, boom }

	assert.ErrorIs(t, ta.Login(context.Background()), boom)
}

func TestLogout_Idempotent(t *testing.T) {
	ta := newTestApp(t, "")
	ta.login(t)

	require.NoError(t, ta.Logout(context.Background()))
	require.NoError(t, ta.Logout(context.Background()))

	assert.False(t, ta.isLoggedIn())
	assert.Equal(t, 1, strings.Count(ta.out.String(), "Logged out\n"))
}

func TestProfile_EmptyAnswersChangeNothing(t *testing.T) {
	ta := newTestApp(t, "")
	ta.login(t)
	stubInputs(t, []string{"", ""}, "")

	require.NoError(t, ta.Profile(context.Background()))
	assert.Equal(t, "Alice", ta.status())
}

func TestWhoAmI_PrintsUser(t *testing.T) {
	ta := newTestApp(t, "")
	ta.login(t)

	require.NoError(t, ta.WhoAmI(context.Background()))
	assert.Contains(t, ta.out.String(), "Alice <alice@uni.ac.uk> (not verified)")
}

func TestWhoAmI_ShowsTokenExpiry(t *testing.T) {
	ctx := context.Background()
	ta := newTestApp(t, "")
	ta.login(t)

	sign := func(exp time.Time) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": 7,
			"exp":     exp.Unix(),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		return tok
	}

	require.NoError(t, ta.store.SetAccess(ctx, sign(time.Now().Add(time.Hour))))
	require.NoError(t, ta.WhoAmI(ctx))
	assert.Contains(t, ta.out.String(), "Access token valid until ")

	require.NoError(t, ta.store.SetAccess(ctx, sign(time.Now().Add(-time.Minute))))
	require.NoError(t, ta.WhoAmI(ctx))
	assert.Contains(t, ta.out.String(), "Access token expired, it will be refreshed on the next request")
}
