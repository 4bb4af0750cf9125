package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultPortalURL ABIポータルのログイン画面
const DefaultPortalURL = "https://ess.abimm.com/ABIMM_ASP/Request.aspx"

// SSMParameterGetter Parameter Storeからパラメータを取得するインターフェース
type SSMParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Config アプリケーション設定構造体
type Config struct {
	// Google Calendar設定
	GoogleCredentials string `env:"GOOGLE_TOKEN_JSON" validate:"required,json"`
	CalendarID        string `env:"CALENDAR_ID" validate:"required"`

	// ABIポータル設定
	PortalURL       string        `env:"ABI_URL" validate:"required,url"`
	BrowserPath     string        `env:"BROWSER_PATH"`
	BrowserHeadless bool          `env:"BROWSER_HEADLESS"`
	ElementTimeout  time.Duration `env:"ELEMENT_TIMEOUT" validate:"gt=0"`

	// HTTPサーバー設定
	ListenAddr  string        `env:"LISTEN_ADDR" validate:"required"`
	SyncTimeout time.Duration `env:"SYNC_TIMEOUT" validate:"gt=0"`

	// LINE API設定（両方設定された場合のみ通知する）
	LineChannelAccessToken string `env:"LINE_CHANNEL_ACCESS_TOKEN" validate:"required_with=LineUserID"`
	LineUserID             string `env:"LINE_USER_ID" validate:"required_with=LineChannelAccessToken"`

	// その他設定
	LogLevel string `env:"LOG_LEVEL" validate:"oneof=DEBUG INFO WARN ERROR"`

	// AWS関連（本番環境でのみ使用）
	ssmClient SSMParameterGetter
}

// Load 環境に応じて設定を読み込み
func Load(ctx context.Context) (*Config, error) {
	// AWS Lambda環境かどうか判定
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return loadAWSConfig(ctx)
	}
	return loadLocalConfig()
}

// loadLocalConfig ローカル開発環境用の設定読み込み
func loadLocalConfig() (*Config, error) {
	// .envファイルを読み込み（存在する場合のみ）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(".envファイルの読み込みに失敗しました: %v", err)
	}

	cfg, err := loadCommon()
	if err != nil {
		return nil, err
	}

	cfg.GoogleCredentials, err = loadGoogleCredentials()
	if err != nil {
		return nil, err
	}
	cfg.LineChannelAccessToken = getEnvOrDefault("LINE_CHANNEL_ACCESS_TOKEN", "")
	cfg.LineUserID = getEnvOrDefault("LINE_USER_ID", "")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadAWSConfig AWS Lambda環境用の設定読み込み
func loadAWSConfig(ctx context.Context) (*Config, error) {
	// AWS設定を初期化
	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("AWS設定の読み込みに失敗しました: %v", err)
	}

	return loadWithParameterStore(ctx, ssm.NewFromConfig(awsConfig))
}

// loadWithParameterStore 機密情報をParameter Storeから取得して設定を組み立てる
func loadWithParameterStore(ctx context.Context, ssmClient SSMParameterGetter) (*Config, error) {
	cfg, err := loadCommon()
	if err != nil {
		return nil, err
	}
	cfg.ssmClient = ssmClient

	// Parameter Storeから機密情報を取得
	if err := cfg.loadFromParameterStore(ctx); err != nil {
		return nil, fmt.Errorf("parameter Storeからの設定読み込みに失敗しました: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadCommon 環境によらない設定を環境変数から読み込み
func loadCommon() (*Config, error) {
	headless, err := getBoolEnv("BROWSER_HEADLESS", true)
	if err != nil {
		return nil, err
	}
	elementTimeout, err := getDurationEnv("ELEMENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	syncTimeout, err := getDurationEnv("SYNC_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		CalendarID:      getEnvOrDefault("CALENDAR_ID", "primary"),
		PortalURL:       getEnvOrDefault("ABI_URL", DefaultPortalURL),
		BrowserPath:     getEnvOrDefault("BROWSER_PATH", ""),
		BrowserHeadless: headless,
		ElementTimeout:  elementTimeout,
		ListenAddr:      getEnvOrDefault("LISTEN_ADDR", ":8000"),
		SyncTimeout:     syncTimeout,
		LogLevel:        strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
	}, nil
}

// loadGoogleCredentials GOOGLE_TOKEN_JSON、なければGOOGLE_TOKEN_FILEのファイルから認証情報を読み込み
func loadGoogleCredentials() (string, error) {
	if credentials := getEnvOrDefault("GOOGLE_TOKEN_JSON", ""); credentials != "" {
		return credentials, nil
	}

	path := getEnvOrDefault("GOOGLE_TOKEN_FILE", "token.json")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// 未設定の場合はValidateでエラーにする
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("google認証情報ファイル %s の読み込みに失敗しました: %v", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// loadFromParameterStore Parameter Storeから機密情報を読み込み
func (c *Config) loadFromParameterStore(ctx context.Context) error {
	// Google認証情報を取得
	googleTokenParam := getEnvOrDefault("GOOGLE_TOKEN_PARAM", "/abi-shift-sync/google-token")
	googleToken, err := c.getParameter(ctx, googleTokenParam, true)
	if err != nil {
		return fmt.Errorf("google認証情報の取得に失敗しました: %w", err)
	}
	c.GoogleCredentials = googleToken

	// LINE通知は任意のため、パラメータが存在しなければスキップ
	lineTokenParam := getEnvOrDefault("LINE_CHANNEL_ACCESS_TOKEN_PARAM", "/abi-shift-sync/line-channel-access-token")
	if c.LineChannelAccessToken, err = c.getOptionalParameter(ctx, lineTokenParam); err != nil {
		return fmt.Errorf("LINE Channel Access Tokenの取得に失敗しました: %w", err)
	}

	lineUserParam := getEnvOrDefault("LINE_USER_ID_PARAM", "/abi-shift-sync/line-user-id")
	if c.LineUserID, err = c.getOptionalParameter(ctx, lineUserParam); err != nil {
		return fmt.Errorf("LINE User IDの取得に失敗しました: %w", err)
	}

	return nil
}

// getParameter Parameter Storeから指定されたパラメータを取得
func (c *Config) getParameter(ctx context.Context, paramName string, withDecryption bool) (string, error) {
	input := &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(withDecryption),
	}

	result, err := c.ssmClient.GetParameter(ctx, input)
	if err != nil {
		return "", fmt.Errorf("パラメータ %s の取得に失敗しました: %w", paramName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return "", fmt.Errorf("パラメータ %s は空の値です", paramName)
	}

	return *result.Parameter.Value, nil
}

// getOptionalParameter 存在しないパラメータを空文字として扱うgetParameter
func (c *Config) getOptionalParameter(ctx context.Context, paramName string) (string, error) {
	value, err := c.getParameter(ctx, paramName, true)
	var notFound *types.ParameterNotFound
	if errors.As(err, &notFound) {
		return "", nil
	}
	return value, err
}

// NotificationEnabled LINE通知の設定がそろっているか
func (c *Config) NotificationEnabled() bool {
	return c.LineChannelAccessToken != "" && c.LineUserID != ""
}

// SlogLevel LOG_LEVELをslogのレベルに変換
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate 設定値を検証
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("設定の検証に失敗しました: %v", err)
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		switch fe.Tag() {
		case "required", "required_with":
			messages = append(messages, fmt.Sprintf("%s環境変数が設定されていません", fe.Field()))
		default:
			messages = append(messages, fmt.Sprintf("%s環境変数の値が不正です (%s)", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(messages, "; "))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// エラーメッセージには環境変数名を使う
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("env")
	})
	return v
}

// getEnvOrDefault 環境変数を取得し、存在しない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv 真偽値の環境変数を取得
func getBoolEnv(key string, defaultValue bool) (bool, error) {
	value := getEnvOrDefault(key, "")
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s環境変数の値が不正です: %q", key, value)
	}
	return parsed, nil
}

// getDurationEnv 時間の環境変数を取得 ("10s"、"5m" など)
func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnvOrDefault(key, "")
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s環境変数の値が不正です: %q", key, value)
	}
	return parsed, nil
}
