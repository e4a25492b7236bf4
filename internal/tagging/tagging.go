package tagging

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/cesargomez89/resonate/internal/constants"
	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
)

const vendor = "resonate"

// TagFile writes song metadata, and cover art when given, to the audio file
// at filePath.
func TagFile(filePath string, song domain.Song, cover []byte) error {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case constants.ExtFLAC:
		return tagFLAC(filePath, song, cover)
	case constants.ExtMP3:
		return tagMP3(filePath, song, cover)
	default:
		return fmt.Errorf("unsupported file format: %s", ext)
	}
}

// tagFLAC replaces every Vorbis comment block, and the picture blocks when a
// new cover is supplied. Audio frames are kept as parsed.
func tagFLAC(filePath string, song domain.Song, cover []byte) error {
	f, err := goflac.ParseFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to open FLAC file: %w", err)
	}

	kept := f.Meta[:0]
	for _, block := range f.Meta {
		if block.Type == goflac.VorbisComment {
			continue
		}
		if block.Type == goflac.Picture && len(cover) > 0 {
			continue
		}
		kept = append(kept, block)
	}
	f.Meta = kept

	cmt, err := newVorbisComment(song)
	if err != nil {
		return err
	}
	cmtBlock := cmt.Marshal()
	f.Meta = append(f.Meta, &cmtBlock)

	if len(cover) > 0 {
		pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front Cover", cover, detectMIME(cover))
		if err != nil {
			return fmt.Errorf("failed to build picture block: %w", err)
		}
		picBlock := pic.Marshal()
		f.Meta = append(f.Meta, &picBlock)
	}

	if err := f.Save(filePath); err != nil {
		return fmt.Errorf("failed to save FLAC file: %w", err)
	}
	return nil
}

func newVorbisComment(song domain.Song) (*flacvorbis.MetaDataBlockVorbisComment, error) {
	cmt := flacvorbis.New()
	cmt.Vendor = vendor

	add := func(name, value string) error {
		if value == "" {
			return nil
		}
		if err := cmt.Add(name, value); err != nil {
			return fmt.Errorf("failed to add %s: %w", name, err)
		}
		return nil
	}

	if err := add(flacvorbis.FIELD_TITLE, song.Name); err != nil {
		return nil, err
	}
	if err := add(flacvorbis.FIELD_ARTIST, song.Artist); err != nil {
		return nil, err
	}
	if err := add(flacvorbis.FIELD_ALBUM, song.Album); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(song.ID, constants.LocalIDPrefix) {
		if err := add("URL", sourceURL(song)); err != nil {
			return nil, err
		}
	}
	return cmt, nil
}

// tagMP3 writes ID3v2.4 tags to an MP3 file.
func tagMP3(filePath string, song domain.Song, cover []byte) error {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open MP3 file: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	if song.Name != "" {
		tag.SetTitle(song.Name)
	}
	if song.Artist != "" {
		tag.SetArtist(song.Artist)
	}
	if song.Album != "" {
		tag.SetAlbum(song.Album)
	}
	if song.ID != "" && !strings.HasPrefix(song.ID, constants.LocalIDPrefix) {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "SOURCE_URL",
			Value:       sourceURL(song),
		})
	}

	if len(cover) > 0 {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    detectMIME(cover),
			PictureType: id3v2.PTFrontCover,
			Description: "Front Cover",
			Picture:     cover,
		})
	}

	return tag.Save()
}

func sourceURL(song domain.Song) string {
	if song.ID == "" {
		return ""
	}
	return fmt.Sprintf(constants.YouTubeMusicWatchURL, song.ID)
}

// detectMIME sniffs image bytes so PNG covers aren't labelled as image/jpeg.
func detectMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if idx := strings.Index(mime, ";"); idx != -1 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}
