// Package language normalizes the response language configured for the
// refinement model and names it for prompts.
//
// Codes are parsed as BCP 47 tags with golang.org/x/text/language, so
// "zh_tw", "zh-Hant-TW" and "ZH-tw" all resolve to the same language.
package language
