// Package translate 封装了机器翻译协作方。
// 核心只依赖 Translator 接口；翻译失败时调用方必须降级为
// 原文回显 + 置信度 0，而不是阻塞消息投递。
package translate

import "context"

// Result 是一次翻译调用的结果。
type Result struct {
	DetectedLanguage string            `json:"detectedLanguage"` // 检测到的源语言代码
	Translations     map[string]string `json:"translations"`     // 目标语言代码 -> 译文，覆盖所有请求的目标语言
	Confidence       float64           `json:"confidence"`       // [0,1]，0 是 "翻译子系统失败，已回退原文" 的保留信号
}

// Translator 给定源文本和目标语言集合，返回检测到的源语言、
// 译文映射和置信度。返回的映射必须覆盖所有请求的目标语言
// (翻译确实失败的条目可以回显原文)。
type Translator interface {
	Translate(ctx context.Context, text string, targetLanguages []string) (Result, error)
}

// Degraded 构造降级结果：每个目标语言都回显原文，置信度为 0。
// 翻译调用失败时使用，保证消息投递不被翻译失败阻塞。
func Degraded(sourceLang, text string, targetLanguages []string) Result {
	translations := make(map[string]string, len(targetLanguages))
	for _, lang := range targetLanguages {
		translations[lang] = text
	}
	return Result{
		DetectedLanguage: sourceLang,
		Translations:     translations,
		Confidence:       0,
	}
}

// Skipped 构造无需翻译时的结果：空映射，置信度 1.0。
// 用于目标语言集合为空或文本为空白的场景。
func Skipped(sourceLang string) Result {
	return Result{
		DetectedLanguage: sourceLang,
		Translations:     map[string]string{},
		Confidence:       1.0,
	}
}
