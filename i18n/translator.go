package i18n

import "strings"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "got" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	var msg string
	switch t.lang {
	case "ja":
		switch code {
		case "illegal_dimension":
			msg = "ジオメトリの次元識別子を認識できません"
		case "illegal_dimensionality":
			msg = "次元数が不正です"
		case "unsupported_dimensionality":
			msg = "10以上の次元数はサポートされていません"
		case "illegal_shape":
			msg = "形状の指定が不正です"
		case "illegal_parameter":
			msg = "ジオメトリ定義のキー/値ペアが不正です"
		case "unterminated":
			msg = "ブロックが閉じられていません"
		case "no_dimensions":
			msg = "次元が宣言されていません"
		case "unencodable":
			msg = "エンコードできない次元です"
		case "insufficient_grid":
			msg = "バウンディングボックスの4座標、またはURNと解像度の両方を指定してください"
		case "invalid_years":
			msg = "年の引数が不正です"
		case "invalid_enum":
			msg = "列挙値が不正です"
		case "invalid_time":
			msg = "時刻が不正です"
		}
	default: // "en"
		switch code {
		case "illegal_dimension":
			msg = "unrecognized geometry dimension identifier"
		case "illegal_dimensionality":
			msg = "illegal dimensionality"
		case "unsupported_dimensionality":
			msg = "dimensionality of 10 or more is not supported"
		case "illegal_shape":
			msg = "illegal shape specification"
		case "illegal_parameter":
			msg = "wrong key/value pair in geometry definition:"
		case "unterminated":
			msg = "unterminated block"
		case "no_dimensions":
			msg = "geometry declares no dimensions"
		case "unencodable":
			msg = "dimension cannot be encoded"
		case "insufficient_grid":
			msg = "must supply either all four bounding box coordinates or both urn and resolution"
		case "invalid_years":
			msg = "years takes one year or a start and end year"
		case "invalid_enum":
			msg = "no enum constant matches"
		case "invalid_time":
			msg = "invalid time"
		}
	}
	if msg == "" {
		return code
	}
	if v, ok := data["value"]; ok {
		msg = strings.TrimSuffix(msg, ":") + ": " + v
	}
	return msg
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
