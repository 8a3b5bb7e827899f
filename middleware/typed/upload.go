package typed

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/platform-smith-labs/japi-errors/core"
)

// maxUploadMemory bounds the multipart form kept in memory (32MB)
const maxUploadMemory = 32 << 20

// uploadedFile returns the multipart "file" field, which must carry the given extension.
// A form that cannot be parsed or lacks the field is a malformed body; a file
// of the wrong type is an illegal argument.
func uploadedFile(r *http.Request, ext string) (multipart.File, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, core.MalformedBody(fmt.Errorf("parsing multipart form: %w", err))
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		return nil, core.MalformedBody(fmt.Errorf("reading 'file' field: %w", err))
	}

	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ext) {
		file.Close()
		return nil, core.IllegalArgument(fmt.Sprintf("File must be a %s file", ext))
	}

	return file, nil
}
