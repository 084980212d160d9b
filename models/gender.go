package models

// Gender — пол пользователя или ограничение комнаты.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// AllowedGenders содержит список допустимых значений пола
var AllowedGenders = []Gender{GenderMale, GenderFemale}

// IsValidGender проверяет, что переданное значение входит в список допустимых
func IsValidGender(g Gender) bool {
	for _, allowed := range AllowedGenders {
		if g == allowed {
			return true
		}
	}
	return false
}

// LanguageCode — язык интерфейса пользователя.
type LanguageCode string

const (
	LanguageRU LanguageCode = "ru"
	LanguageEN LanguageCode = "en"
)

// DefaultLanguage используется, если Telegram не сообщил язык или сообщил неподдерживаемый.
const DefaultLanguage = LanguageRU

func IsValidLanguage(l LanguageCode) bool {
	return l == LanguageRU || l == LanguageEN
}
