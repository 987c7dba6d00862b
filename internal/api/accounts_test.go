package api

import (
	"net/http"
	"testing"
)

func TestSignupCreatesAccountAndIssuesTokens(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username":     "ana",
		"phone_number": uniquePhone(1),
		"password":     "hunter22",
		"bio":          "hello there",
	})
	requireStatus(t, rec, http.StatusCreated)

	got := decodeResponse[authResponse](t, rec)
	if got.Profile.Username != "ana" || got.Profile.Bio != "hello there" {
		t.Fatalf("profile = %+v", got.Profile)
	}
	if got.Access == "" || got.Refresh == "" {
		t.Fatal("signup should issue a token pair")
	}

	// The issued access token must authenticate API calls immediately.
	requireStatus(t, f.do(t, http.MethodGet, "/api/friends", got.Access, nil), http.StatusOK)
}

func TestSignupValidatesRequiredFields(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "ana",
	})
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestSignupRejectsDuplicates(t *testing.T) {
	f := newAPIFixture(t)
	existing := f.createUser(t, "ana")

	rec := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username":     "ana",
		"phone_number": uniquePhone(2),
		"password":     "hunter22",
	})
	requireStatus(t, rec, http.StatusBadRequest)
	if got := decodeResponse[errorPayload](t, rec); got.Error != "Username already taken" {
		t.Fatalf("error = %q", got.Error)
	}

	rec = f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username":     "ana2",
		"phone_number": existing.PhoneNumber,
		"password":     "hunter22",
	})
	requireStatus(t, rec, http.StatusBadRequest)
	if got := decodeResponse[errorPayload](t, rec); got.Error != "Phone number already registered" {
		t.Fatalf("error = %q", got.Error)
	}
}

func TestLoginWithUsernameAndPhoneNumber(t *testing.T) {
	f := newAPIFixture(t)
	user := f.createUser(t, "ana")

	for _, identifier := range []string{user.Username, user.PhoneNumber} {
		rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": identifier,
			"password": "hunter22",
		})
		requireStatus(t, rec, http.StatusOK)
		got := decodeResponse[authResponse](t, rec)
		if got.Profile.ID != user.ID {
			t.Fatalf("login as %q resolved user %d, want %d", identifier, got.Profile.ID, user.ID)
		}
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "ana")

	cases := []map[string]string{
		{"username": "ana", "password": "wrong"},
		{"username": "nobody", "password": "hunter22"},
	}
	for _, body := range cases {
		rec := f.do(t, http.MethodPost, "/api/auth/login", "", body)
		requireStatus(t, rec, http.StatusBadRequest)
		if got := decodeResponse[errorPayload](t, rec); got.Error != "Invalid login details." {
			t.Fatalf("error = %q", got.Error)
		}
	}
}

func TestRefreshIssuesNewPair(t *testing.T) {
	f := newAPIFixture(t)
	user := f.createUser(t, "ana")

	pair, err := f.tokens.IssuePair(user.ID)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	rec := f.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh": pair.Refresh,
	})
	requireStatus(t, rec, http.StatusOK)

	got := decodeResponse[map[string]string](t, rec)
	if got["access"] == "" || got["refresh"] == "" {
		t.Fatalf("refresh response = %v", got)
	}
	if userID, err := f.tokens.Verify(got["access"]); err != nil || userID != user.ID {
		t.Fatalf("refreshed access token resolves to %d, %v", userID, err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newAPIFixture(t)
	user := f.createUser(t, "ana")

	rec := f.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh": f.accessToken(t, user.ID),
	})
	requireStatus(t, rec, http.StatusUnauthorized)
}
