package domain

const DefaultLanguageCode = "en"

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var English = Language{Code: DefaultLanguageCode, Name: "English"}
