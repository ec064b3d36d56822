package seed

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"dayzone_backend/internal/model"
)

// SeedDemoData creates a demo user with a filled-in plan for today and a
// project with a couple of updates. Safe to call repeatedly: the demo email
// gets a fresh uuid suffix each run, so seeds never collide.
func SeedDemoData(db *gorm.DB) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing demo password: %v", err)
		return
	}

	user := model.User{
		Email:    fmt.Sprintf("demo+%s@dayzone.app", uuid.NewString()[:8]),
		Password: string(hashed),
		Name:     "Demo User",
	}
	if err := db.Create(&user).Error; err != nil {
		log.Printf("Error creating demo user: %v", err)
		return
	}

	today := time.Now().Format("2006-01-02")
	plan := model.DailyPlan{
		UserID:        user.ID,
		PlanDate:      today,
		Reflection:    "Started using DayZone. Feels promising.",
		FocusTomorrow: "Ship the first deep work block before lunch.",
		DeepWorkItems: []model.DeepWorkItem{
			{Title: "Draft launch plan", EstimateMinutes: 90},
			{Title: "Review onboarding flow", EstimateMinutes: 60, Completed: true},
		},
		QuickWins: []model.QuickWin{
			{Title: "Reply to support inbox", Completed: true},
		},
		MakeItHappenTasks: []model.MakeItHappenTask{
			{Title: "Book the offsite venue", Why: "Deadline is Friday"},
		},
		RechargeZones: []model.RechargeZone{
			{Activity: "30 minute walk"},
		},
		LittleJoys: []model.LittleJoy{
			{Description: "Morning coffee on the balcony"},
		},
	}
	if err := db.Create(&plan).Error; err != nil {
		log.Printf("Error creating demo plan: %v", err)
		return
	}

	projectName := "DayZone Launch"
	project := model.Project{
		UserID: user.ID,
		Name:   projectName,
		Slug:   slug.Make(projectName),
		Updates: []model.ProjectUpdate{
			{Content: "Landing page copy finalized", Completed: true},
			{Content: "Waiting on the pricing page design"},
		},
	}
	if err := db.Create(&project).Error; err != nil {
		log.Printf("Error creating demo project: %v", err)
		return
	}

	log.Printf("Demo data seeded for %s", user.Email)
}
