package model

import "fmt"

// Status — статус жизненного цикла кандидата или вакансии.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid сообщает, является ли значение допустимым статусом.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// MarshalText сериализует статус в его строковый тег.
// Недопустимое значение приводит к ошибке сериализации.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("недопустимый статус %q", string(s))
	}
	return []byte(s), nil
}

// UnmarshalText разбирает статус из строки с проверкой допустимости.
func (s *Status) UnmarshalText(text []byte) error {
	v := Status(text)
	if !v.Valid() {
		return fmt.Errorf("недопустимый статус %q, допустимые: active, inactive", string(text))
	}
	*s = v
	return nil
}

// ParseStatus разбирает статус из строки.
func ParseStatus(s string) (Status, error) {
	var st Status
	err := st.UnmarshalText([]byte(s))
	return st, err
}

// UpsertResult — код результата операции create-or-update.
type UpsertResult string

const (
	// ResultCreated — создана новая запись
	ResultCreated UpsertResult = "created"
	// ResultUpdated — обновлена существующая запись (разбор CV)
	ResultUpdated UpsertResult = "updated"
	// ResultExisting — запись уже существовала (сопоставление)
	ResultExisting UpsertResult = "existing"
)
