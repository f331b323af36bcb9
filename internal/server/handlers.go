package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/f-sync/unfollow/internal/hiddenstore"
	"github.com/f-sync/unfollow/internal/listview"
	"github.com/f-sync/unfollow/internal/metrics"
	"github.com/f-sync/unfollow/internal/relations"
	"github.com/f-sync/unfollow/internal/report"
)

const (
	uploadFormField               = "archive"
	formFieldTab                  = "tab"
	formFieldUsername             = "username"
	formFieldQuery                = "q"
	formFieldShowDeleted          = "show_deleted"
	formValueEnabled              = "1"
	pathParameterID               = "id"
	contentDispositionHeader      = "Content-Disposition"
	attachmentDispositionFormat   = "attachment; filename=%q"
	errorMessageMissingUpload     = "choose an Instagram export ZIP to analyze"
	errorMessageUploadTooLarge    = "uploaded file exceeds the %d MB limit"
	errorMessageUploadUnreadable  = "uploaded file could not be read"
	errorMessageAnalysisNotFound  = "analysis not found; upload the archive again"
	errorMessageUnknownList       = "unknown list"
	errorMessageInvalidIdentifier = "invalid username"
	errorMessageRenderFailure     = "page rendering failed"
	errorMessageStoreFailure      = "hidden accounts could not be saved"
	errorMessageExportFailure     = "export failed"
	errorKindUploadTooLarge       = "upload_too_large"
	errorKindMissingUpload        = "missing_upload"
	logMessageAnalysisStored      = "analysis stored"
	logMessageAnalysisFailed      = "analysis failed"
	logMessageRenderFailure       = "page render failure"
	logMessageStoreFailure        = "hidden store failure"
	logMessageExportFailure       = "export write failure"
	logFieldAnalysisID            = "analysis_id"
	logFieldFileName              = "file_name"
	logFieldFailureKind           = "failure_kind"
	logFieldList                  = "list"
	bytesPerMegabyte              = 1 << 20
)

var (
	errMissingUpload    = errors.New(errorMessageMissingUpload)
	errUploadUnreadable = errors.New(errorMessageUploadUnreadable)
)

// uploadTooLargeError reports an upload exceeding the configured byte limit.
type uploadTooLargeError struct {
	limitBytes int64
}

func (uploadError uploadTooLargeError) Error() string {
	return fmt.Sprintf(errorMessageUploadTooLarge, uploadError.limitBytes/bytesPerMegabyte)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type analysisResponse struct {
	ID        string           `json:"id"`
	FileName  string           `json:"file_name"`
	CreatedAt time.Time        `json:"created_at"`
	Result    relations.Result `json:"result"`
}

type analysisHandler struct {
	cache          *analysisCache
	store          *hiddenstore.Store
	metrics        metrics.Recorder
	logger         *zap.Logger
	maxUploadBytes int64
}

func (handler analysisHandler) serveIndex(ginContext *gin.Context) {
	handler.renderPage(ginContext, http.StatusOK, report.PageData{})
}

func (handler analysisHandler) uploadArchive(ginContext *gin.Context) {
	analysis, err := handler.analyzeUpload(ginContext)
	if err != nil {
		handler.renderPage(ginContext, uploadFailureStatus(err), report.PageData{Errors: []string{err.Error()}})
		return
	}
	ginContext.Redirect(http.StatusSeeOther, report.AnalysisPath(analysis.identifier))
}

func (handler analysisHandler) rejectUploadPage(ginContext *gin.Context) {
	handler.renderPage(ginContext, http.StatusTooManyRequests, report.PageData{Errors: []string{errorMessageTooManyUploads}})
}

func (handler analysisHandler) uploadArchiveAPI(ginContext *gin.Context) {
	analysis, err := handler.analyzeUpload(ginContext)
	if err != nil {
		ginContext.JSON(uploadFailureStatus(err), errorResponse{Error: err.Error(), Kind: uploadFailureKind(err)})
		return
	}
	ginContext.JSON(http.StatusOK, analysisResponse{
		ID:        analysis.identifier,
		FileName:  analysis.fileName,
		CreatedAt: analysis.createdAt,
		Result:    analysis.result,
	})
}

// analyzeUpload reads the multipart archive, analyzes it and stores the result.
func (handler analysisHandler) analyzeUpload(ginContext *gin.Context) (storedAnalysis, error) {
	fileName, archiveBytes, err := handler.readUpload(ginContext)
	if err != nil {
		return storedAnalysis{}, err
	}

	startedAt := time.Now()
	result, err := relations.AnalyzeArchive(archiveBytes)
	if err != nil {
		failureKind := relations.FailureKind(err)
		handler.metrics.RecordAnalysisFailure(failureKind)
		handler.logger.Info(logMessageAnalysisFailed,
			zap.String(logFieldFileName, fileName),
			zap.String(logFieldFailureKind, failureKind),
			zap.Error(err),
		)
		return storedAnalysis{}, err
	}
	handler.metrics.RecordAnalysisSuccess(result.Counts.Followers+result.Counts.Following, time.Since(startedAt))

	analysis := handler.cache.Store(fileName, result)
	handler.logger.Info(logMessageAnalysisStored,
		zap.String(logFieldAnalysisID, analysis.identifier),
		zap.String(logFieldFileName, fileName),
	)
	return analysis, nil
}

func (handler analysisHandler) readUpload(ginContext *gin.Context) (string, []byte, error) {
	if ginContext.Request.ContentLength > handler.maxUploadBytes {
		return "", nil, uploadTooLargeError{limitBytes: handler.maxUploadBytes}
	}
	ginContext.Request.Body = http.MaxBytesReader(ginContext.Writer, ginContext.Request.Body, handler.maxUploadBytes)

	fileHeader, err := ginContext.FormFile(uploadFormField)
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			return "", nil, uploadTooLargeError{limitBytes: handler.maxUploadBytes}
		}
		return "", nil, errMissingUpload
	}
	archiveBytes, err := readFormFile(fileHeader)
	if err != nil {
		return "", nil, err
	}
	return fileHeader.Filename, archiveBytes, nil
}

func readFormFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUploadUnreadable, err)
	}
	defer file.Close()
	var buffer bytes.Buffer
	if _, err := io.Copy(&buffer, file); err != nil {
		return nil, fmt.Errorf("%w: %w", errUploadUnreadable, err)
	}
	return buffer.Bytes(), nil
}

func uploadFailureStatus(err error) int {
	var tooLarge uploadTooLargeError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func uploadFailureKind(err error) string {
	var tooLarge uploadTooLargeError
	switch {
	case errors.As(err, &tooLarge):
		return errorKindUploadTooLarge
	case errors.Is(err, errMissingUpload):
		return errorKindMissingUpload
	default:
		return relations.FailureKind(err)
	}
}

func (handler analysisHandler) serveAnalysis(ginContext *gin.Context) {
	analysis, found := handler.lookupAnalysis(ginContext)
	if !found {
		return
	}
	filters := readFilters(ginContext.Query(formFieldTab), ginContext.Query(formFieldQuery), ginContext.Query(formFieldShowDeleted))
	handler.renderPage(ginContext, http.StatusOK, report.PageData{Analysis: &report.AnalysisView{
		ID:          analysis.identifier,
		FileName:    analysis.fileName,
		Result:      analysis.result,
		ActiveTab:   filters.tab.Kind,
		Hidden:      handler.loadHidden(),
		Query:       filters.query,
		ShowDeleted: filters.showDeleted,
	}})
}

func (handler analysisHandler) hideIdentifier(ginContext *gin.Context) {
	analysis, found := handler.lookupAnalysis(ginContext)
	if !found {
		return
	}
	tab, ok := handler.requireTab(ginContext, ginContext.PostForm(formFieldTab))
	if !ok {
		return
	}
	identifier := ginContext.PostForm(formFieldUsername)
	if !relations.IsIdentifier(identifier) {
		handler.renderPage(ginContext, http.StatusBadRequest, report.PageData{Errors: []string{errorMessageInvalidIdentifier}})
		return
	}
	if err := handler.store.Hide(tab.StorageKey, identifier); err != nil {
		handler.failStore(ginContext, tab, err)
		return
	}
	handler.metrics.RecordHide(string(tab.Kind))
	handler.redirectToTab(ginContext, analysis, tab)
}

func (handler analysisHandler) resetHidden(ginContext *gin.Context) {
	analysis, found := handler.lookupAnalysis(ginContext)
	if !found {
		return
	}
	tab, ok := handler.requireTab(ginContext, ginContext.PostForm(formFieldTab))
	if !ok {
		return
	}
	if err := handler.store.Reset(tab.StorageKey); err != nil {
		handler.failStore(ginContext, tab, err)
		return
	}
	handler.metrics.RecordReset(string(tab.Kind))
	handler.redirectToTab(ginContext, analysis, tab)
}

func (handler analysisHandler) exportList(ginContext *gin.Context) {
	analysis, found := handler.lookupAnalysis(ginContext)
	if !found {
		return
	}
	filters := readFilters(ginContext.Query(formFieldTab), ginContext.Query(formFieldQuery), ginContext.Query(formFieldShowDeleted))
	hidden, err := handler.store.Load(filters.tab.StorageKey)
	if err != nil {
		handler.logger.Warn(logMessageStoreFailure, zap.String(logFieldList, string(filters.tab.Kind)), zap.Error(err))
	}
	visible := listview.Filter(analysis.result.List(filters.tab.Kind), listview.Options{
		Hidden:      hidden,
		Query:       filters.query,
		HideDeleted: !filters.showDeleted,
	})

	var buffer bytes.Buffer
	if err := listview.WriteCSV(&buffer, visible); err != nil {
		handler.logger.Error(logMessageExportFailure, zap.Error(err))
		ginContext.String(http.StatusInternalServerError, errorMessageExportFailure)
		return
	}
	handler.metrics.RecordExport(string(filters.tab.Kind))
	ginContext.Header(contentDispositionHeader, fmt.Sprintf(attachmentDispositionFormat, filters.tab.CSVFileName))
	ginContext.Data(http.StatusOK, listview.CSVContentType, buffer.Bytes())
}

// listFilters is the normalized tab, search and deleted toggle of a request.
type listFilters struct {
	tab         listview.Tab
	query       string
	showDeleted bool
}

// readFilters falls back to the default tab when tabName is unknown.
func readFilters(tabName string, query string, showDeleted string) listFilters {
	tab := listview.DefaultTab()
	if kind, err := listview.ParseListKind(tabName); err == nil {
		tab, _ = listview.TabFor(kind)
	}
	return listFilters{tab: tab, query: query, showDeleted: showDeleted == formValueEnabled}
}

func (handler analysisHandler) lookupAnalysis(ginContext *gin.Context) (storedAnalysis, bool) {
	analysis, found := handler.cache.Lookup(ginContext.Param(pathParameterID))
	if !found {
		handler.renderPage(ginContext, http.StatusNotFound, report.PageData{Errors: []string{errorMessageAnalysisNotFound}})
		return storedAnalysis{}, false
	}
	return analysis, true
}

func (handler analysisHandler) requireTab(ginContext *gin.Context, tabName string) (listview.Tab, bool) {
	kind, err := listview.ParseListKind(tabName)
	if err != nil {
		handler.renderPage(ginContext, http.StatusBadRequest, report.PageData{Errors: []string{errorMessageUnknownList}})
		return listview.Tab{}, false
	}
	tab, _ := listview.TabFor(kind)
	return tab, true
}

func (handler analysisHandler) redirectToTab(ginContext *gin.Context, analysis storedAnalysis, tab listview.Tab) {
	location := report.TabURL(
		analysis.identifier,
		tab.Kind,
		ginContext.PostForm(formFieldQuery),
		ginContext.PostForm(formFieldShowDeleted) == formValueEnabled,
	)
	ginContext.Redirect(http.StatusSeeOther, location)
}

func (handler analysisHandler) failStore(ginContext *gin.Context, tab listview.Tab, err error) {
	handler.logger.Error(logMessageStoreFailure, zap.String(logFieldList, string(tab.Kind)), zap.Error(err))
	handler.renderPage(ginContext, http.StatusInternalServerError, report.PageData{Errors: []string{errorMessageStoreFailure}})
}

// loadHidden gathers the hidden set of every tab; a failing key is treated as empty.
func (handler analysisHandler) loadHidden() map[relations.ListKind]map[string]bool {
	hidden := make(map[relations.ListKind]map[string]bool)
	for _, tab := range listview.Tabs() {
		identifiers, err := handler.store.Load(tab.StorageKey)
		if err != nil {
			handler.logger.Warn(logMessageStoreFailure, zap.String(logFieldList, string(tab.Kind)), zap.Error(err))
			continue
		}
		hidden[tab.Kind] = identifiers
	}
	return hidden
}

func (handler analysisHandler) renderPage(ginContext *gin.Context, status int, pageData report.PageData) {
	pageHTML, err := report.RenderPage(pageData)
	if err != nil {
		handler.logger.Error(logMessageRenderFailure, zap.Error(err))
		ginContext.String(http.StatusInternalServerError, errorMessageRenderFailure)
		return
	}
	ginContext.Data(status, htmlContentType, []byte(pageHTML))
}
