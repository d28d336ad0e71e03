package extraction

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
)

// readText извлекает текст документа. Текстовые файлы читаются напрямую,
// остальные форматы (PDF, DOC, DOCX, ODT, RTF) конвертируются через docconv.
func readText(doc Document) (string, error) {
	ext := strings.ToLower(filepath.Ext(doc.OriginalFilename))

	switch ext {
	case ".txt", ".md", "":
		data, err := os.ReadFile(doc.Path)
		if err != nil {
			return "", fmt.Errorf("%w: чтение файла: %v", ErrExtraction, err)
		}
		return string(data), nil
	case ".pdf", ".doc", ".docx", ".odt", ".rtf":
		res, err := docconv.ConvertPath(doc.Path)
		if err != nil {
			return "", fmt.Errorf("%w: конвертация %s: %v", ErrExtraction, ext, err)
		}
		return res.Body, nil
	default:
		return "", fmt.Errorf("%w: неподдерживаемый формат %q", ErrExtraction, ext)
	}
}
