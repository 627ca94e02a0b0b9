package services

import (
	"log"

	"ctf-learning-platform/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var titleCaser = cases.Title(language.English)

// SeedDemoContent loads a small set of sample modules, challenges and
// flags so a fresh deployment has something to play. Skips entirely if
// any module already exists. Enabled with SEED_DEMO_DATA=true.
func SeedDemoContent(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Module{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("[SEED] Content already present, skipping demo seed")
		return nil
	}

	type demoFlag struct {
		value    string
		flagType string
		points   int64
	}
	type demoChallenge struct {
		title      string
		desc       string
		category   string
		difficulty string
		points     int64
		hints      []string
		flags      []demoFlag
	}
	type demoModule struct {
		title      string
		desc       string
		category   string
		difficulty string
		order      int
		points     int64
		challenges []demoChallenge
	}

	demo := []demoModule{
		{
			title: "Introduction to Cryptography", desc: "Classical ciphers and where they break.",
			category: "cryptography", difficulty: models.ModuleDifficultyBeginner, order: 1, points: 15,
			challenges: []demoChallenge{
				{
					title: "Caesar's Secret", desc: "The message was shifted by 13. Recover it.",
					category: "Crypto", difficulty: models.DifficultyEasy, points: 10,
					hints: []string{"ROT13 is its own inverse."},
					flags: []demoFlag{{value: "CTF{rot13_is_not_encryption}", flagType: models.FlagTypeExact, points: 10}},
				},
				{
					title: "Base Instincts", desc: "Layers of encoding hide the flag.",
					category: "Crypto", difficulty: models.DifficultyMedium, points: 20,
					hints: []string{"Decode twice.", "Padding characters give the scheme away."},
					flags: []demoFlag{{value: `CTF\{b4se64_[a-z0-9_]+\}`, flagType: models.FlagTypeRegex, points: 20}},
				},
			},
		},
		{
			title: "web security basics", desc: "Injection, sessions and the OWASP top 10.",
			category: "web security", difficulty: models.ModuleDifficultyBeginner, order: 2, points: 15,
			challenges: []demoChallenge{
				{
					title: "Login Bypass", desc: "The login form trusts its input a little too much.",
					category: "Web", difficulty: models.DifficultyEasy, points: 15,
					hints: []string{"What happens to a quote character?"},
					flags: []demoFlag{
						{value: "CTF{sqli_classic}", flagType: models.FlagTypeExact, points: 15},
						{value: "sqli_classic", flagType: models.FlagTypeContains, points: 15},
					},
				},
			},
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, m := range demo {
			module := models.Module{
				ID:          uuid.NewString(),
				Title:       titleCaser.String(m.title),
				Slug:        slug.Make(m.title),
				Description: m.desc,
				Category:    titleCaser.String(m.category),
				Difficulty:  m.difficulty,
				Order:       m.order,
				Points:      m.points,
				IsActive:    true,
			}
			if err := tx.Create(&module).Error; err != nil {
				return err
			}

			for _, c := range m.challenges {
				challenge := models.Challenge{
					ID:          uuid.NewString(),
					ModuleID:    module.ID,
					Title:       c.title,
					Slug:        slug.Make(c.title),
					Description: c.desc,
					Category:    c.category,
					Difficulty:  c.difficulty,
					Points:      c.points,
					Hints:       c.hints,
					IsActive:    true,
				}
				if err := tx.Create(&challenge).Error; err != nil {
					return err
				}

				for _, f := range c.flags {
					flag := models.Flag{
						ID:          uuid.NewString(),
						ChallengeID: challenge.ID,
						FlagValue:   f.value,
						FlagType:    f.flagType,
						Points:      f.points,
						IsActive:    true,
					}
					if err := tx.Create(&flag).Error; err != nil {
						return err
					}
				}
			}
			log.Printf("[SEED] ✅ Created module %q with %d challenge(s)", module.Title, len(m.challenges))
		}
		return nil
	})
}
