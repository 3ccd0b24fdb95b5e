package jobs

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/example/foty/internal/models"
	"github.com/example/foty/internal/services"
)

// NewsletterJob sends scheduled digest emails to subscribed members.
type NewsletterJob struct {
	db   *gorm.DB
	mail *services.MailService
}

// NewNewsletterJob constructs the job.
func NewNewsletterJob(db *gorm.DB, mail *services.MailService) *NewsletterJob {
	return &NewsletterJob{db: db, mail: mail}
}

// Start schedules the daily (08:00) and weekly (Monday 09:00) digests in the
// given timezone and returns the running scheduler.
func (j *NewsletterJob) Start(timezone string) (*cron.Cron, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	scheduler := cron.New(cron.WithLocation(loc))

	if _, err := scheduler.AddFunc("0 8 * * *", j.SendDaily); err != nil {
		return nil, err
	}
	if _, err := scheduler.AddFunc("0 9 * * 1", j.SendWeekly); err != nil {
		return nil, err
	}

	scheduler.Start()
	log.Printf("[Cron] newsletter jobs scheduled in %s", timezone)
	return scheduler, nil
}

// SendDaily mails the last 24 hours of posts and newly created events to
// DAILY subscribers. Nothing is sent when the period produced no content.
func (j *NewsletterJob) SendDaily() {
	log.Printf("[Cron] running daily newsletter job")

	since := time.Now().Add(-24 * time.Hour)
	posts, err := j.recentPosts(since)
	if err != nil {
		log.Printf("[Cron] daily content load failed: %v", err)
		return
	}

	var events []models.Event
	if err := j.db.Where("created_at >= ?", since).Order("date asc").Find(&events).Error; err != nil {
		log.Printf("[Cron] daily content load failed: %v", err)
		return
	}

	j.deliver(models.NewsletterDaily, "FOTY Daily Update", posts, events)
}

// SendWeekly mails the last 7 days of posts plus all upcoming events to
// WEEKLY subscribers.
func (j *NewsletterJob) SendWeekly() {
	log.Printf("[Cron] running weekly newsletter job")

	posts, err := j.recentPosts(time.Now().Add(-7 * 24 * time.Hour))
	if err != nil {
		log.Printf("[Cron] weekly content load failed: %v", err)
		return
	}

	var events []models.Event
	if err := j.db.Where("date >= ?", time.Now()).Order("date asc").Find(&events).Error; err != nil {
		log.Printf("[Cron] weekly content load failed: %v", err)
		return
	}

	j.deliver(models.NewsletterWeekly, "FOTY Weekly Digest", posts, events)
}

func (j *NewsletterJob) recentPosts(since time.Time) ([]models.BulletinPost, error) {
	var posts []models.BulletinPost
	err := j.db.Where("created_at >= ?", since).Order("created_at desc").Find(&posts).Error
	return posts, err
}

func (j *NewsletterJob) deliver(frequency, subject string, posts []models.BulletinPost, events []models.Event) {
	if len(posts) == 0 && len(events) == 0 {
		log.Printf("[Cron] no new content, skipping %s emails", frequency)
		return
	}

	var users []models.User
	if err := j.db.Where("newsletter = ?", frequency).Find(&users).Error; err != nil {
		log.Printf("[Cron] subscriber load failed: %v", err)
		return
	}
	if len(users) == 0 {
		log.Printf("[Cron] no %s subscribers", frequency)
		return
	}

	sent := 0
	for _, user := range users {
		html := BuildDigestHTML(user.Name, posts, events)
		if err := j.mail.Send(user.Email, subject, html); err != nil {
			log.Printf("[Cron] newsletter to %s failed: %v", user.Email, err)
			continue
		}
		sent++
	}
	log.Printf("[Cron] sent %s newsletter to %d of %d subscribers", frequency, sent, len(users))
}

// BuildDigestHTML renders the newsletter body for one recipient.
func BuildDigestHTML(name string, posts []models.BulletinPost, events []models.Event) string {
	var b strings.Builder

	b.WriteString(`<div style="font-family: Arial, sans-serif; line-height: 1.6;">`)
	fmt.Fprintf(&b, "<h2>Hi %s,</h2>", name)
	b.WriteString("<p>Here's your update from Friends of the Youth (FOTY)!</p><hr>")

	if len(posts) > 0 {
		b.WriteString("<h2>New Bulletin Posts</h2><ul>")
		for _, post := range posts {
			excerpt := post.Content
			if len(excerpt) > 100 {
				excerpt = excerpt[:100]
			}
			fmt.Fprintf(&b, "<li><b>%s</b><p>%s...</p></li>", post.Title, excerpt)
		}
		b.WriteString("</ul>")
	} else {
		b.WriteString("<p>No new bulletin posts this period.</p>")
	}
	b.WriteString("<hr>")

	if len(events) > 0 {
		b.WriteString("<h2>Upcoming Events</h2><ul>")
		for _, event := range events {
			fmt.Fprintf(&b, "<li><b>%s</b> on %s at %s</li>",
				event.Name, event.Date.Format("January 2, 2006"), event.Location)
		}
		b.WriteString("</ul>")
	} else {
		b.WriteString("<p>No new or upcoming events.</p>")
	}

	b.WriteString("<hr><p>Thank you for being a valued member of our community.</p>")
	b.WriteString("<p><em>To unsubscribe, please log in to your profile settings on our website.</em></p></div>")

	return b.String()
}
