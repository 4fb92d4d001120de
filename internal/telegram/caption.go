package telegram

import (
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Telebots-07/Pk-s-bot/internal/consts"
	"github.com/Telebots-07/Pk-s-bot/internal/logger"
	"github.com/Telebots-07/Pk-s-bot/internal/store"
)

var placeholderPattern = regexp.MustCompile(`\{[a-z_]+\}`)

var knownPlaceholders = map[string]struct{}{
	consts.PlaceholderFilename: {},
	consts.PlaceholderDate:     {},
	consts.PlaceholderSize:     {},
	consts.PlaceholderFileID:   {},
	consts.PlaceholderUserID:   {},
	consts.PlaceholderFileLink: {},
}

// formatCaption renders the admin caption template for one stored file.
// Unknown placeholders are a template error: the fixed default caption is
// used instead, and ingestion carries on. The result never exceeds the
// 4096-character caption cap; truncation appends an ellipsis marker.
// Rendering is a pure function of template + record + link, so running it
// twice yields the same string.
func formatCaption(template string, rec store.FileRecord, fileLink string) string {
	if strings.TrimSpace(template) == "" {
		template = consts.MsgDefaultCaption + ": " + consts.PlaceholderFilename
	}

	if bad := unknownPlaceholders(template); len(bad) > 0 {
		logger.Warn("Caption template has unknown placeholders, using default", logger.Fields{
			"placeholders": strings.Join(bad, ","),
		})
		template = consts.MsgDefaultCaption + ": " + consts.PlaceholderFilename
	}

	replacer := strings.NewReplacer(
		consts.PlaceholderFilename, rec.FileName,
		consts.PlaceholderDate, rec.CreatedAt.Format("2006-01-02"),
		consts.PlaceholderSize, humanSize(rec.SizeBytes),
		consts.PlaceholderFileID, rec.ID,
		consts.PlaceholderUserID, fmt.Sprintf("%d", rec.UploaderID),
		consts.PlaceholderFileLink, fileLink,
	)

	return truncateCaption(replacer.Replace(template))
}

func unknownPlaceholders(template string) []string {
	var bad []string
	for _, ph := range placeholderPattern.FindAllString(template, -1) {
		if _, ok := knownPlaceholders[ph]; !ok {
			bad = append(bad, ph)
		}
	}
	return bad
}

func truncateCaption(caption string) string {
	runes := []rune(caption)
	if len(runes) <= consts.MaxCaptionLength {
		return caption
	}
	marker := []rune(consts.TruncationMarker)
	return string(runes[:consts.MaxCaptionLength-len(marker)]) + consts.TruncationMarker
}

// buildButtons turns the admin button specs into inline keyboard rows, one
// button per row. Malformed specs are skipped, a substituted URL without an
// http(s) scheme falls back to the raw file link, and the total is capped.
func buildButtons(specs []store.ButtonSpec, fileLink, fileID string) []tgbotapi.InlineKeyboardButton {
	replacer := strings.NewReplacer(
		consts.PlaceholderFileLink, fileLink,
		consts.PlaceholderFileID, fileID,
	)

	var buttons []tgbotapi.InlineKeyboardButton
	for _, spec := range specs {
		if len(buttons) == consts.MaxInlineButtons {
			break
		}
		if spec.Text == "" {
			logger.Warn("Skipping button spec without text", nil)
			continue
		}

		switch {
		case spec.URL != "":
			url := replacer.Replace(spec.URL)
			if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
				logger.Warn("Button URL missing http(s) scheme, using raw file link", logger.Fields{
					"text": spec.Text,
				})
				url = fileLink
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(spec.Text, url))
		case spec.CallbackData != "":
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(spec.Text, replacer.Replace(spec.CallbackData)))
		default:
			logger.Warn("Skipping button spec without url or callback data", logger.Fields{
				"text": spec.Text,
			})
		}
	}
	return buttons
}

// humanSize renders a byte count the way captions show it.
func humanSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
