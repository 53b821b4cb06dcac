package common

import (
	"context"
	"fmt"
	"log"
	"opsdesk/src/config"
	"opsdesk/src/db"
	"opsdesk/src/lib"
	awslib "opsdesk/src/lib/aws"
	"opsdesk/src/lib/mailer"
	"opsdesk/src/models"
	"opsdesk/src/types"
)

type Notice struct {
	UserID         uint
	Title          string
	Description    string
	ReferenceType  string
	ReferenceValue string
	Type           string
}

// Notify stores an in-app notification and emails the recipient.
func Notify(n Notice) {
	db := db.GetDb()
	desc := n.Description
	row := models.Notification{
		UserID:         n.UserID,
		ReferenceType:  n.ReferenceType,
		ReferenceValue: n.ReferenceValue,
		Title:          n.Title,
		Description:    &desc,
		Type:           n.Type,
	}
	if err := db.Create(&row).Error; err != nil {
		log.Printf("[notify] Error saving notification for user %d: %s\n", n.UserID, err.Error())
		return
	}
	var user models.User
	if err := db.Select("id", "email", "name").Where("id = ?", n.UserID).First(&user).Error; err != nil || user.Email == "" {
		return
	}
	body := n.Description
	if config.APP_HOST != "" {
		body = fmt.Sprintf("%s\n\n%s/%s/%s", body, config.APP_HOST, n.ReferenceType, n.ReferenceValue)
	}
	if err := mailer.NewMailerMessage(&lib.SendMailInput{
		To:      []string{user.Email},
		Subject: n.Title,
		Body:    body,
	}); err != nil {
		log.Printf("[notify] Error mailing user %d: %s\n", n.UserID, err.Error())
	}
}

// NotifyBugAssigned tells the new assignee and fans the event out to the bug events topic.
func NotifyBugAssigned(bug *models.Bug) {
	if bug.AssignedTo != nil {
		Notify(Notice{
			UserID:         *bug.AssignedTo,
			Title:          fmt.Sprintf("%s assigned to you", bug.BugCode),
			Description:    bug.Title,
			ReferenceType:  "bugs",
			ReferenceValue: fmt.Sprint(bug.ID),
			Type:           "bug.assigned",
		})
	}
	PublishBugEvent("bug.assigned", bug)
}

func PublishBugEvent(eventType string, bug *models.Bug) {
	if config.BUG_EVENTS_TOPIC_ARN == "" {
		return
	}
	pub := awslib.NewSNSPublisher(config.BUG_EVENTS_TOPIC_ARN)
	if pub == nil {
		return
	}
	_ = pub.Publish(context.Background(), eventType, types.JSONB{
		"id":          bug.ID,
		"bug_code":    bug.BugCode,
		"title":       bug.Title,
		"status":      bug.Status,
		"severity":    bug.Severity,
		"assigned_to": bug.AssignedTo,
		"project_id":  bug.ProjectID,
	})
}
