package model

import "time"

// CVUpload — загруженный файл резюме.
// Хранится в таблице cv_uploads, сам файл — в файловом хранилище.
type CVUpload struct {
	// ID — UUID загрузки
	ID string
	// FilePath — имя файла в хранилище (относительно каталога данных)
	FilePath string
	// OriginalFilename — исходное имя файла
	OriginalFilename string
	// ContentType — MIME-тип
	ContentType string
	// Size — размер в байтах
	Size int64
	// Checksum — SHA-256 содержимого (hex)
	Checksum string
	// UploadedAt — время загрузки
	UploadedAt time.Time
}
