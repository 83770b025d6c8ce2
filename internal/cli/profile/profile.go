package profile

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/utils"
)

type ProfileCmd struct {
	Show ProfileShowCmd `cmd:"" help:"Show the user profile." default:"1"`
	Set  ProfileSetCmd  `cmd:"" help:"Update profile fields."`
}

type ProfileShowCmd struct{}

func (c *ProfileShowCmd) Run(ctx *cli.Context) error {
	p, err := ctx.Repo.GetUserProfile()
	if err != nil {
		return err
	}
	if p == nil {
		fmt.Printf("No profile yet. Run '%s signup' to create one.\n", constants.AppName)
		return nil
	}
	fmt.Printf("%s %s\n", p.AvatarEmoji, p.Name)
	fmt.Printf("  Age:     %d\n", p.Age)
	fmt.Printf("  Gender:  %s\n", p.Gender)
	fmt.Printf("  Since:   %s\n", ctx.FormatTimestamp(p.CreatedAt))
	return nil
}

type ProfileSetCmd struct {
	Name   *string `help:"Display name."`
	Age    *int    `help:"Age in years."`
	Gender *string `help:"Male, Female, Other or PreferNotToSay."`
	Avatar *string `help:"Avatar emoji."`
}

func (c *ProfileSetCmd) Run(ctx *cli.Context) error {
	p, err := ctx.Repo.GetUserProfile()
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("no profile yet, run '%s signup' first", constants.AppName)
	}

	updated := false
	if c.Name != nil {
		if strings.TrimSpace(*c.Name) == "" {
			return fmt.Errorf("name cannot be empty")
		}
		p.Name = strings.TrimSpace(*c.Name)
		updated = true
	}
	if c.Age != nil {
		if *c.Age <= 0 {
			return fmt.Errorf("age must be positive")
		}
		p.Age = *c.Age
		updated = true
	}
	if c.Gender != nil {
		if !slices.Contains(models.Genders, *c.Gender) {
			return fmt.Errorf("invalid gender %q (expected one of %s)", *c.Gender, strings.Join(models.Genders, ", "))
		}
		p.Gender = *c.Gender
		updated = true
	}
	if c.Avatar != nil {
		p.AvatarEmoji = *c.Avatar
		updated = true
	}

	if !updated {
		fmt.Println("No changes specified.")
		return nil
	}
	if err := ctx.Repo.SaveUserProfile(*p); err != nil {
		return err
	}
	fmt.Println("Profile updated.")
	return nil
}

// SignupCmd creates the profile and marks onboarding complete.
type SignupCmd struct {
	Name   string `help:"Display name. Omit all flags to fill in a form."`
	Age    int    `help:"Age in years."`
	Gender string `help:"Male, Female, Other or PreferNotToSay." default:"PreferNotToSay"`
	Avatar string `help:"Avatar emoji." default:"😃"`
	Force  bool   `help:"Replace an existing profile."`
}

func (c *SignupCmd) Run(ctx *cli.Context) error {
	existing, err := ctx.Repo.GetUserProfile()
	if err != nil {
		return err
	}
	if existing != nil && !c.Force {
		return fmt.Errorf("a profile for %s already exists, use --force to replace it", existing.Name)
	}

	if c.Name == "" {
		fm := &cli.SignupFormModel{Gender: c.Gender, Avatar: c.Avatar}
		if c.Age > 0 {
			fm.Age = strconv.Itoa(c.Age)
		}
		if err := cli.NewSignupForm(fm).Run(); err != nil {
			return err
		}
		c.Name = fm.Name
		c.Age, _ = strconv.Atoi(strings.TrimSpace(fm.Age))
		c.Gender = fm.Gender
		c.Avatar = fm.Avatar
	}

	if strings.TrimSpace(c.Name) == "" || c.Age <= 0 {
		return fmt.Errorf("name and a positive age are required")
	}
	if !slices.Contains(models.Genders, c.Gender) {
		return fmt.Errorf("invalid gender %q (expected one of %s)", c.Gender, strings.Join(models.Genders, ", "))
	}

	p := models.UserProfile{
		Name:        strings.TrimSpace(c.Name),
		Age:         c.Age,
		Gender:      c.Gender,
		AvatarEmoji: c.Avatar,
		CreatedAt:   utils.NowMillis(ctx.Repo.Now()),
	}
	if err := ctx.Repo.SaveUserProfile(p); err != nil {
		return err
	}

	settings, err := ctx.Repo.GetSettings()
	if err != nil {
		return err
	}
	if !settings.HasCompletedOnboarding {
		settings.HasCompletedOnboarding = true
		if err := ctx.Repo.SaveSettings(settings); err != nil {
			return err
		}
	}

	fmt.Printf("Welcome, %s %s!\n", p.AvatarEmoji, p.Name)
	return nil
}
