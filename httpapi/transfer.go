package httpapi

import (
	"fmt"
	"net/http"

	"github.com/lawrns/foco/export"
	imports "github.com/lawrns/foco/import"
)

// handleImportCSV ingests a CSV request body. Row-level failures land in
// the result report under a 200; only header-level problems fail the
// call.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dryRun, err := boolParam(q, "dry_run")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	result, err := imports.CSV(s.store, r.Body, imports.Options{
		ProjectID: q.Get("project"),
		DryRun:    dryRun,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}

// handleExport streams the board as a zip archive.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	archive, err := export.Build(s.store, export.Options{
		ProjectIDs: q["project"],
		Format:     q.Get("format"),
	}, s.timeFunc())
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Name))
	if err := export.Write(archive, w); err != nil {
		// Headers are out; the truncated stream is all the client sees.
		s.logger.Error("export stream failed", "error", err)
	}
}
