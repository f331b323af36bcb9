package relations

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// FollowersEntryPath is the archive entry listing accounts that follow the owner.
	FollowersEntryPath = "connections/followers_and_following/followers_1.json"
	// FollowingEntryPath is the archive entry listing accounts the owner follows.
	FollowingEntryPath = "connections/followers_and_following/following.json"

	relationshipsFollowingKey  = "relationships_following"
	errMessageFollowersNotList = "followers document is not a list"
	errMessageFollowingNotList = "relationships_following is not a list"
	readArchiveFileErrorFormat = "read %s: %w"
)

var (
	errFollowersNotList = errors.New(errMessageFollowersNotList)
	errFollowingNotList = errors.New(errMessageFollowingNotList)
)

// AnalyzeArchiveFile reads the archive at archivePath and analyzes it.
func AnalyzeArchiveFile(archivePath string) (Result, error) {
	archiveBytes, err := os.ReadFile(archivePath)
	if err != nil {
		return Result{}, fmt.Errorf(readArchiveFileErrorFormat, archivePath, err)
	}
	return AnalyzeArchive(archiveBytes)
}

// AnalyzeArchive extracts the followers and following sets from an Instagram export
// archive and classifies them into not-following-back, you-don't-follow-back and mutuals.
func AnalyzeArchive(archiveBytes []byte) (Result, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(archiveBytes), int64(len(archiveBytes)))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrArchiveOpen, err)
	}

	var followersFile, followingFile *zip.File
	availablePaths := make([]string, 0, len(zipReader.File))
	for _, file := range zipReader.File {
		availablePaths = append(availablePaths, file.Name)
		if file.FileInfo().IsDir() {
			continue
		}
		switch file.Name {
		case FollowersEntryPath:
			followersFile = file
		case FollowingEntryPath:
			followingFile = file
		}
	}
	if followersFile == nil || followingFile == nil {
		return Result{}, &MissingEntryError{
			ExpectedPaths:  []string{FollowersEntryPath, FollowingEntryPath},
			AvailablePaths: availablePaths,
		}
	}

	followersDocument, err := readJSONEntry(followersFile)
	if err != nil {
		return Result{}, err
	}
	followingDocument, err := readJSONEntry(followingFile)
	if err != nil {
		return Result{}, err
	}

	followers, err := extractFollowers(followersDocument)
	if err != nil {
		return Result{}, newParseError(FollowersEntryPath, err)
	}
	following, err := extractFollowing(followingDocument)
	if err != nil {
		return Result{}, newParseError(FollowingEntryPath, err)
	}
	return BuildResult(followers, following), nil
}

func readJSONEntry(file *zip.File) (any, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrArchiveOpen, file.Name, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrArchiveOpen, file.Name, err)
	}
	var document any
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, newParseError(file.Name, err)
	}
	return document, nil
}

// extractFollowers collects identifiers from the top-level followers list.
func extractFollowers(document any) (IdentifierSet, error) {
	followers := IdentifierSet{}
	if document == nil {
		return followers, nil
	}
	records, isList := document.([]any)
	if !isList {
		return nil, errFollowersNotList
	}
	collectIdentifiers(followers, records, classifyStringListRecord)
	return followers, nil
}

// extractFollowing collects identifiers from relationships_following.
func extractFollowing(document any) (IdentifierSet, error) {
	following := IdentifierSet{}
	object, isObject := document.(map[string]any)
	if !isObject {
		return following, nil
	}
	rawRecords := object[relationshipsFollowingKey]
	if rawRecords == nil {
		return following, nil
	}
	records, isList := rawRecords.([]any)
	if !isList {
		return nil, errFollowingNotList
	}
	collectIdentifiers(following, records, classifyFollowingRecord)
	return following, nil
}

func collectIdentifiers(target IdentifierSet, records []any, classify func(map[string]any) recordCandidate) {
	for _, rawRecord := range records {
		record, isObject := rawRecord.(map[string]any)
		if !isObject {
			continue
		}
		if identifier, ok := classify(record).identifier(); ok {
			target.Add(identifier)
		}
	}
}
