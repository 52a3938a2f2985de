package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func initData(userJSON string) string {
	v := url.Values{}
	v.Set("query_id", "AAH")
	v.Set("auth_date", "1700000000")
	v.Set("user", userJSON)
	return v.Encode()
}

func TestResolvePrecedence(t *testing.T) {
	id, err := Resolve(Sources{
		InitData:     initData(`{"id":111,"first_name":"Иван"}`),
		LaunchURL:    "https://app.example/?user_id=222",
		ConfigUserID: 333,
	})
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 111, Source: SourceInitData}, id)

	id, err = Resolve(Sources{LaunchURL: "https://app.example/?user_id=222", ConfigUserID: 333})
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 222, Source: SourceLaunchURL}, id)

	id, err = Resolve(Sources{InitData: initData(`{"first_name":"no id"}`), ConfigUserID: 333})
	require.NoError(t, err)
	assert.Equal(t, SourceConfig, id.Source)

	_, err = Resolve(Sources{})
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestUserIDFromLaunchURL(t *testing.T) {
	cases := map[string]int64{
		"https://app.example/?user_id=5":         5,
		"https://app.example/?foo=1&user_id=7#x": 7,
		"user_id=9":                              9,
		"?user_id=10":                            10,
	}
	for in, want := range cases {
		got, err := UserIDFromLaunchURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "https://app.example/", "user_id=abc", "user_id=-1"} {
		_, err := UserIDFromLaunchURL(in)
		assert.Error(t, err, in)
	}
}

func TestUserIDFromInitDataRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "user=notjson", initData(`{"id":0}`), initData(`[]`)} {
		_, err := UserIDFromInitData(in)
		assert.Error(t, err, in)
	}
}

func TestValidate(t *testing.T) {
	const token = "123456:TEST-TOKEN"
	values, err := url.ParseQuery(initData(`{"id":111}`))
	require.NoError(t, err)
	values.Set("hash", Sign(values, token))
	signed := values.Encode()

	assert.NoError(t, Validate(signed, token))
	assert.ErrorIs(t, Validate(signed, "other-token"), ErrInvalidSignature)

	values.Set("auth_date", "1700000001")
	assert.ErrorIs(t, Validate(values.Encode(), token), ErrInvalidSignature)

	assert.ErrorIs(t, Validate(initData(`{"id":1}`), token), ErrInvalidSignature)
	assert.Error(t, Validate(signed, ""))
}

func TestSignIgnoresHashField(t *testing.T) {
	values, _ := url.ParseQuery(initData(`{"id":1}`))
	before := Sign(values, "t")
	values.Set("hash", "deadbeef")
	assert.Equal(t, before, Sign(values, "t"))
}

func TestSignKeepsEmptyFields(t *testing.T) {
	const token = "123456:TEST-TOKEN"
	values, err := url.ParseQuery(initData(`{"id":1}`))
	require.NoError(t, err)
	values.Set("start_param", "")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte("auth_date=1700000000\nquery_id=AAH\nstart_param=\nuser={\"id\":1}"))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, Sign(values, token))

	values.Set("hash", want)
	assert.NoError(t, Validate(values.Encode(), token))
}

func TestLoadInitDataPrefersEnv(t *testing.T) {
	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	called := false
	keyringGet = func(string, string) (string, error) {
		called = true
		return "from-keyring", nil
	}

	t.Setenv(EnvInitData, " from-env ")
	got, err := LoadInitData()
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
	assert.False(t, called)
}

func TestLoadInitDataFromKeyring(t *testing.T) {
	origGet := keyringGet
	defer func() { keyringGet = origGet }()
	t.Setenv(EnvInitData, "")

	var gotService, gotAccount string
	keyringGet = func(service, account string) (string, error) {
		gotService, gotAccount = service, account
		return " stored \n", nil
	}
	got, err := LoadInitData()
	require.NoError(t, err)
	assert.Equal(t, "stored", got)
	assert.Equal(t, "subkill", gotService)
	assert.Equal(t, "init_data", gotAccount)

	keyringGet = func(string, string) (string, error) { return "", keyring.ErrNotFound }
	got, err = LoadInitData()
	require.NoError(t, err)
	assert.Empty(t, got)

	keyringGet = func(string, string) (string, error) { return "", errors.New("locked") }
	_, err = LoadInitData()
	assert.Error(t, err)
}

func TestSaveAndDeleteInitData(t *testing.T) {
	origSet, origDelete := keyringSet, keyringDelete
	defer func() { keyringSet, keyringDelete = origSet, origDelete }()

	stored := ""
	keyringSet = func(_, _, secret string) error {
		stored = secret
		return nil
	}
	keyringDelete = func(string, string) error { return keyring.ErrNotFound }

	assert.Error(t, SaveInitData("   "))
	assert.Error(t, SaveInitData("user=%7B%7D"))
	require.NoError(t, SaveInitData(initData(`{"id":5}`)))
	assert.NotEmpty(t, stored)

	assert.NoError(t, DeleteInitData())
}
