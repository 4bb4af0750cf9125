package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// authorizedUserToken OAuthフローで保存されたtoken.jsonの構造体
type authorizedUserToken struct {
	Type         string   `json:"type"`
	Token        string   `json:"token"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	Expiry       string   `json:"expiry"`
}

// NewTokenSource 認証情報JSONから自動更新つきのTokenSourceを作成
// token.json形式（ユーザー認可済みトークン）とサービスアカウントJSONの両方に対応
func NewTokenSource(ctx context.Context, credentialsJSON []byte) (oauth2.TokenSource, error) {
	var token authorizedUserToken
	if err := json.Unmarshal(credentialsJSON, &token); err != nil {
		return nil, fmt.Errorf("google認証情報のJSON解析に失敗しました: %v", err)
	}

	// アクセストークンを含まない形式はGoogleのライブラリに任せる
	if token.Type == "service_account" || (token.Token == "" && token.AccessToken == "" && token.Type != "") {
		creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, calendar.CalendarScope)
		if err != nil {
			return nil, fmt.Errorf("google認証情報の読み込みに失敗しました: %v", err)
		}
		return creds.TokenSource, nil
	}

	if token.RefreshToken == "" && token.Token == "" && token.AccessToken == "" {
		return nil, fmt.Errorf("google認証情報にトークンが含まれていません")
	}

	scopes := token.Scopes
	if len(scopes) == 0 {
		scopes = []string{calendar.CalendarScope}
	}

	endpoint := google.Endpoint
	if token.TokenURI != "" {
		endpoint.TokenURL = token.TokenURI
	}

	oauthConfig := &oauth2.Config{
		ClientID:     token.ClientID,
		ClientSecret: token.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}

	accessToken := token.Token
	if accessToken == "" {
		accessToken = token.AccessToken
	}

	oauthToken := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    "Bearer",
	}
	if token.Expiry != "" {
		expiry, err := parseTokenExpiry(token.Expiry)
		if err != nil {
			return nil, fmt.Errorf("トークン有効期限の解析に失敗しました: %v", err)
		}
		oauthToken.Expiry = expiry
	}

	// 有効期限切れの場合はリフレッシュトークンで自動更新される
	return oauthConfig.TokenSource(ctx, oauthToken), nil
}

// parseTokenExpiry token.jsonの有効期限を解析（タイムゾーンなしの場合はUTCとみなす）
func parseTokenExpiry(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", value, time.UTC)
}
