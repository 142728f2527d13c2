// Package cli implements the interactive numbered menu.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/models"
	"github.com/ifuryst/murmur/internal/service"
)

const timeLayout = "2006-01-02 15:04"

// Menu reads choices line by line from in and writes everything to out, so a
// session can be scripted.
type Menu struct {
	assistant *service.Assistant
	scanner   *bufio.Scanner
	out       io.Writer
	logger    *zap.Logger

	// defaultLanguage applies when the language prompt is left empty.
	defaultLanguage string
	language        string
}

func NewMenu(assistant *service.Assistant, defaultLanguage string, in io.Reader, out io.Writer, logger *zap.Logger) *Menu {
	lang, _ := models.NormalizeLanguage(defaultLanguage)
	return &Menu{
		assistant:       assistant,
		scanner:         bufio.NewScanner(in),
		out:             out,
		logger:          logger,
		defaultLanguage: lang,
		language:        lang,
	}
}

// Run shows the menu until the user exits, input ends or ctx is done.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		m.printMenu()
		choice, ok := m.prompt("\nEnter your choice (1-7): ")
		if !ok {
			return m.scanner.Err()
		}

		switch choice {
		case "1":
			m.processURL(ctx)
		case "2":
			m.viewLibrary(ctx)
		case "3":
			m.schedulePost(ctx)
		case "4":
			m.viewScheduled(ctx)
		case "5":
			m.saveLibrary(ctx)
		case "6":
			m.deleteLibrary(ctx)
		case "7":
			m.println("Goodbye!")
			return nil
		default:
			m.println(errorStyle.Render("Invalid choice! Please try again."))
		}
	}
}

func (m *Menu) printMenu() {
	m.println("")
	m.println(titleStyle.Render("Social Media Assistant Menu:"))
	m.printf("Current Language: %s\n", models.LanguageName(m.language))
	m.println(strings.Repeat("-", 30))
	m.println("1. Process new URL")
	m.println("2. View content library")
	m.println("3. Schedule posts")
	m.println("4. View scheduled posts")
	m.println("5. Save library")
	m.println("6. Delete JSON file and clear library")
	m.println("7. Exit")
}

func (m *Menu) processURL(ctx context.Context) {
	url, ok := m.prompt("Enter URL to process: ")
	if !ok || url == "" {
		return
	}

	m.println("\nAvailable languages:")
	for _, l := range models.Languages {
		m.printf("%s: %s\n", l.Code, l.Name)
	}
	input, _ := m.prompt(fmt.Sprintf("\nEnter language code (press Enter for %s): ", models.LanguageName(m.defaultLanguage)))
	if input == "" {
		input = m.defaultLanguage
	}
	lang, supported := models.NormalizeLanguage(strings.ToLower(input))
	if !supported {
		m.println("Unsupported language code. Using English.")
	}
	m.language = lang

	view, err := m.assistant.ProcessURL(ctx, url, lang)
	if err != nil {
		if errors.Is(err, service.ErrDuplicate) {
			m.println(infoStyle.Render(err.Error()))
			return
		}
		m.logger.Debug("Menu processing failed", zap.String("url", url), zap.Error(err))
		m.println(errorStyle.Render(fmt.Sprintf("Error processing URL: %v", err)))
		return
	}

	m.println(headingStyle.Render("\nProcessed Content:"))
	m.printf("Title: %s\n", view.Content.Title)
	m.printf("Language: %s\n", models.LanguageName(view.Content.Language))
	m.printPosts(view.Posts)
	m.printf("\nKeywords: %s\n", strings.Join(view.Content.Keywords, ", "))
}

func (m *Menu) printPosts(posts []models.Post) {
	m.println(headingStyle.Render("\nPlatform Posts:"))
	for _, p := range posts {
		m.printf("\n%s:\n", p.Platform.DisplayName())
		m.println(p.Body)
	}
}

func (m *Menu) viewLibrary(ctx context.Context) {
	views, err := m.assistant.Library(ctx)
	if err != nil {
		m.println(errorStyle.Render(fmt.Sprintf("Error loading library: %v", err)))
		return
	}

	m.println(headingStyle.Render("\nContent Library:"))
	if len(views) == 0 {
		m.println("The content library is empty.")
		return
	}
	for i, v := range views {
		m.printf("\n%d. %s\n", i+1, v.Content.Title)
		m.printf("URL: %s\n", v.Content.URL)
		m.printf("Language: %s\n", models.LanguageName(v.Content.Language))
		m.printf("Summary: %s\n", v.Content.Summary)
		m.printf("Keywords: %s\n", strings.Join(v.Content.Keywords, ", "))
		m.printPosts(v.Posts)
		posted := "No"
		if v.Posted {
			posted = "Yes"
		}
		m.printf("\nPosted: %s\n", posted)
		m.println(strings.Repeat("-", 80))
	}
}

func (m *Menu) schedulePost(ctx context.Context) {
	views, err := m.assistant.Library(ctx)
	if err != nil {
		m.println(errorStyle.Render(fmt.Sprintf("Error loading library: %v", err)))
		return
	}
	if len(views) == 0 {
		m.println("No content available to schedule. Please process some URLs first.")
		return
	}

	m.println("\nAvailable content:")
	for i, v := range views {
		m.printf("%d. %s (%s)\n", i+1, v.Content.Title, models.LanguageName(v.Content.Language))
	}

	input, _ := m.prompt("\nSelect content number: ")
	idx, err := strconv.Atoi(input)
	if err != nil || idx < 1 || idx > len(views) {
		m.println("Invalid input. Please try again.")
		return
	}
	view := views[idx-1]

	m.println("\nAvailable platforms:")
	for _, p := range view.Posts {
		m.printf("- %s\n", p.Platform.DisplayName())
	}
	input, _ = m.prompt("\nEnter platform: ")
	platform, err := models.ParsePlatform(input)
	if err != nil {
		m.println("Invalid platform selected.")
		return
	}

	hour, ok := m.promptInt("Enter hour (0-23): ")
	if !ok {
		m.println("Invalid input. Please try again.")
		return
	}
	minute, ok := m.promptInt("Enter minute (0-59): ")
	if !ok {
		m.println("Invalid input. Please try again.")
		return
	}

	when, err := m.assistant.NextOccurrence(hour, minute)
	if err != nil {
		m.println(errorStyle.Render(fmt.Sprintf("Invalid time format: %v", err)))
		return
	}

	if _, err := m.assistant.SchedulePost(ctx, view.Content.ID, platform, when); err != nil {
		if errors.Is(err, service.ErrNoPostForPlatform) {
			m.printf("No content available for platform: %s\n", platform.DisplayName())
			return
		}
		m.println(errorStyle.Render(fmt.Sprintf("Error scheduling post: %v", err)))
		return
	}
	m.println(successStyle.Render(fmt.Sprintf("\nPost scheduled successfully for %s", when.Format(timeLayout))))
}

func (m *Menu) viewScheduled(ctx context.Context) {
	items, err := m.assistant.ScheduledView(ctx)
	if err != nil {
		m.println(errorStyle.Render(fmt.Sprintf("Error loading schedule: %v", err)))
		return
	}
	if len(items) == 0 {
		m.println("No scheduled posts found.")
		return
	}

	m.println(headingStyle.Render("\nScheduled Posts:"))
	t := table.NewWriter()
	t.SetOutputMirror(m.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Content", "Platform", "Scheduled For", "Status", "Error"})
	for _, item := range items {
		t.AppendRow(table.Row{
			item.ContentTitle,
			item.Platform.DisplayName(),
			item.Entry.ScheduledTime.Format(timeLayout),
			string(item.Entry.Status),
			item.Entry.Error,
		})
	}
	t.Render()
}

func (m *Menu) saveLibrary(ctx context.Context) {
	if err := m.assistant.Save(ctx); err != nil {
		m.println(errorStyle.Render(fmt.Sprintf("Error saving library: %v", err)))
		return
	}
	m.println(successStyle.Render("Library saved successfully!"))
}

func (m *Menu) deleteLibrary(ctx context.Context) {
	confirmation, _ := m.prompt("Are you sure you want to delete the JSON file and clear the library? (yes/no): ")
	if strings.ToLower(confirmation) != "yes" {
		m.println("Operation cancelled.")
		return
	}

	if err := m.assistant.DeleteAndClear(ctx); err != nil {
		m.println(errorStyle.Render(fmt.Sprintf("Error deleting file: %v", err)))
		return
	}
	m.println(successStyle.Render("Output file deleted and content library cleared successfully!"))
}

// prompt writes label and returns the next trimmed line. ok is false once
// input is exhausted.
func (m *Menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.scanner.Text()), true
}

func (m *Menu) promptInt(label string) (int, bool) {
	input, ok := m.prompt(label)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}

func (m *Menu) printf(format string, args ...interface{}) {
	fmt.Fprintf(m.out, format, args...)
}
