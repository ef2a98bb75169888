package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/sirupsen/logrus"
)

// LibreClient 是 Translator 的 HTTP 实现，对接 LibreTranslate 兼容接口。
// 源语言检测在本地通过 whatlanggo 完成，不依赖远端。
type LibreClient struct {
	endpoint string // 例如 http://localhost:5000/translate
	apiKey   string
	client   *http.Client
}

// NewLibreClient 创建 LibreClient 实例。
// timeout 为单次 HTTP 请求的超时；apiKey 可为空 (自托管实例通常不需要)。
func NewLibreClient(endpoint, apiKey string, timeout time.Duration) *LibreClient {
	if endpoint == "" {
		panic("translate endpoint cannot be empty for LibreClient")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LibreClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// DetectLanguage 用 whatlanggo 检测文本语言，返回 ISO 639-1 代码和 [0,1] 置信度。
// 检测不出时返回空代码和 0 置信度，由调用方决定回退语言。
func DetectLanguage(text string) (string, float64) {
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	confidence := info.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return code, confidence
}

// Translate 为每个目标语言各发起一次翻译请求。
// 单个目标失败时该条目回显原文；所有目标都失败时返回错误，
// 调用方应以 Degraded 结果继续而不是传播该错误。
func (c *LibreClient) Translate(ctx context.Context, text string, targetLanguages []string) (Result, error) {
	detected, confidence := DetectLanguage(text)

	translations := make(map[string]string, len(targetLanguages))
	failed := 0
	for _, target := range targetLanguages {
		translated, err := c.translateOne(ctx, text, detected, target)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"target":   target,
				"detected": detected,
			}).Warn("Translate: target translation failed, echoing original text")
			translations[target] = text
			failed++
			continue
		}
		translations[target] = translated
	}

	if len(targetLanguages) > 0 && failed == len(targetLanguages) {
		return Result{DetectedLanguage: detected, Translations: translations, Confidence: 0},
			fmt.Errorf("translate: all %d target translations failed", failed)
	}

	return Result{
		DetectedLanguage: detected,
		Translations:     translations,
		Confidence:       confidence,
	}, nil
}

// translateOne 发起单次 LibreTranslate 请求。
func (c *LibreClient) translateOne(ctx context.Context, text, source, target string) (string, error) {
	if source == "" {
		source = "auto"
	}
	reqBody := map[string]string{
		"q":      text,
		"source": source,
		"target": target,
		"format": "text",
	}
	if c.apiKey != "" {
		reqBody["api_key"] = c.apiKey
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("translate: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("translate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 读取一小段响应体用于日志定位，避免整段刷屏
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("translate: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("translate: decode response: %w", err)
	}
	if result.TranslatedText == "" {
		return "", fmt.Errorf("translate: empty translation for target %s", target)
	}
	return result.TranslatedText, nil
}
