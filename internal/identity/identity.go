// Package identity resolves which backend user the dashboard acts for.
package identity

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoIdentity means no source yielded a user id. It is terminal: the
// dashboard cannot start without one.
var ErrNoIdentity = errors.New("identity: no user id available")

// Source names where a user id came from.
type Source string

// Identity sources, in precedence order.
const (
	SourceInitData  Source = "init_data"
	SourceLaunchURL Source = "launch_url"
	SourceConfig    Source = "config"
)

// Sources carries every candidate input for Resolve.
type Sources struct {
	InitData     string // host launch data, URL-encoded
	LaunchURL    string // launch URL, may carry ?user_id=
	ConfigUserID int64
}

// Identity is the resolved host user.
type Identity struct {
	UserID int64
	Source Source
}

// Resolve picks the user id from the first source that has one.
func Resolve(src Sources) (Identity, error) {
	if id, err := UserIDFromInitData(src.InitData); err == nil {
		return Identity{UserID: id, Source: SourceInitData}, nil
	}
	if id, err := UserIDFromLaunchURL(src.LaunchURL); err == nil {
		return Identity{UserID: id, Source: SourceLaunchURL}, nil
	}
	if src.ConfigUserID > 0 {
		return Identity{UserID: src.ConfigUserID, Source: SourceConfig}, nil
	}
	return Identity{}, ErrNoIdentity
}

// UserIDFromInitData extracts user.id from launch data.
func UserIDFromInitData(initData string) (int64, error) {
	initData = strings.TrimSpace(initData)
	if initData == "" {
		return 0, ErrNoIdentity
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, fmt.Errorf("identity: parsing init data: %w", err)
	}

	user := values.Get("user")
	if user == "" || !gjson.Valid(user) {
		return 0, ErrNoIdentity
	}
	id := gjson.Get(user, "id")
	if !id.Exists() || id.Int() <= 0 {
		return 0, ErrNoIdentity
	}
	return id.Int(), nil
}

// UserIDFromLaunchURL reads the user_id query parameter. A bare query string
// ("user_id=5") is accepted too.
func UserIDFromLaunchURL(launch string) (int64, error) {
	launch = strings.TrimSpace(launch)
	if launch == "" {
		return 0, ErrNoIdentity
	}

	query := launch
	if i := strings.Index(query, "?"); i >= 0 {
		query = query[i+1:]
	}
	if i := strings.Index(query, "#"); i >= 0 {
		query = query[:i]
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return 0, fmt.Errorf("identity: parsing launch url: %w", err)
	}
	raw := strings.TrimSpace(values.Get("user_id"))
	if raw == "" {
		return 0, ErrNoIdentity
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNoIdentity
	}
	return id, nil
}
