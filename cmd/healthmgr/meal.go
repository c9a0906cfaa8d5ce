package healthmgr

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/health"
	"github.com/aazoaer/health-manager/internal/model"
	"github.com/aazoaer/health-manager/internal/service"
)

var (
	mealAmount    float64
	mealUnit      string
	mealPer       float64
	mealPerUnit   string
	mealDensity   float64
	mealNutrients map[string]string
	mealCalories  float64
	mealProtein   float64
	mealCarbs     float64
	mealFat       float64
	mealJSON      bool
	mealLog       bool
	mealLimit     int
)

var mealCmd = &cobra.Command{
	Use:   "meal",
	Short: "Log meals and look up foods",
}

var mealAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Log a food with nutrients given per --per of --per-unit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nutrients, err := mealNutrientFlags(cmd)
		if err != nil {
			return err
		}
		in := service.MealInput{
			Name:       strings.Join(args, " "),
			Amount:     mealAmount,
			Unit:       mealUnit,
			Nutrients:  nutrients,
			RefAmount:  mealPer,
			RefUnit:    mealPerUnit,
			DensityGML: mealDensity,
			Custom:     true,
		}
		return withTracker(func(tr *service.Tracker) error {
			meal, err := tr.AddMeal(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printMeal(cmd, meal)
		})
	},
}

var mealListCmd = &cobra.Command{
	Use:   "list",
	Short: "List today's meals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			log, err := tr.Meals(cmd.Context())
			if err != nil {
				return err
			}
			if mealJSON {
				return printJSON(cmd.OutOrStdout(), log)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tTIME\tNAME\tSERVING\tKCAL\tP\tC\tF")
			for _, m := range log.Records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%g %s\t%.1f\t%.1f\t%.1f\t%.1f\n",
					m.ID, m.Timestamp.Format("15:04"), m.Name, m.ServingEaten.Value.Float(), m.ServingEaten.Unit,
					m.Level1[health.NutrientCalories], m.Level1[health.NutrientProtein],
					m.Level1[health.NutrientCarbs], m.Level1[health.NutrientFat])
			}
			return nil
		})
	},
}

var mealDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of today's meals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			if err := tr.DeleteMeal(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted meal %s\n", args[0])
			return nil
		})
	},
}

var mealLookupCmd = &cobra.Command{
	Use:   "lookup <barcode>",
	Short: "Look up a packaged food by barcode (Open Food Facts, then USDA)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		food, err := newFoodFinder().LookupBarcode(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !mealLog {
			if mealJSON {
				return printJSON(cmd.OutOrStdout(), food)
			}
			printFood(cmd, food)
			return nil
		}
		amount := mealAmount
		if !cmd.Flags().Changed("amount") && food.ServingAmount > 0 {
			amount = food.ServingAmount
		}
		unit := mealUnit
		if !cmd.Flags().Changed("unit") && food.ServingUnit != "" {
			unit = food.ServingUnit
		}
		return withTracker(func(tr *service.Tracker) error {
			meal, err := tr.AddMeal(cmd.Context(), food.MealInput(amount, unit))
			if err != nil {
				return err
			}
			return printMeal(cmd, meal)
		})
	},
}

var mealSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search foods by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if mealLimit < 1 || mealLimit > service.MaxSearchLimit {
			return fmt.Errorf("--limit must be between 1 and %d", service.MaxSearchLimit)
		}
		foods, err := newFoodFinder().SearchFoods(cmd.Context(), strings.Join(args, " "), mealLimit)
		if err != nil {
			return err
		}
		if mealJSON {
			return printJSON(cmd.OutOrStdout(), foods)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "PROVIDER\tBARCODE\tNAME\tKCAL/100\tCOMPLETENESS")
		for _, f := range foods {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%.1f\t%s\n", f.Provider, f.Barcode, strings.TrimSpace(f.Brand+" "+f.Name), f.Per100[health.NutrientCalories], f.Completeness)
		}
		return nil
	},
}

var mealPromptCmd = &cobra.Command{
	Use:     `prompt "<amount><unit> <food>"...`,
	Short:   "Print a question asking a chat assistant for nutrients per 100 g",
	Example: `  healthmgr meal prompt "150g rice" "1piece egg"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		foods := make([]service.PromptFood, 0, len(args))
		for _, arg := range args {
			f, err := parsePromptFood(arg)
			if err != nil {
				return err
			}
			foods = append(foods, f)
		}
		return withTracker(func(tr *service.Tracker) error {
			p, err := tr.MealPrompt(cmd.Context(), foods)
			if err != nil {
				return err
			}
			if mealJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Text)
			fmt.Fprintf(cmd.OutOrStdout(), "\nAsk at: %s\n", p.URL)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(mealCmd)
	mealCmd.AddCommand(mealAddCmd, mealListCmd, mealDeleteCmd, mealLookupCmd, mealSearchCmd, mealPromptCmd)
	mealCmd.PersistentFlags().BoolVar(&mealJSON, "json", false, "Output JSON")

	for _, c := range []*cobra.Command{mealAddCmd, mealLookupCmd} {
		c.Flags().Float64Var(&mealAmount, "amount", 100, "Amount eaten")
		c.Flags().StringVar(&mealUnit, "unit", "g", "Unit of --amount (g, kg, ml, l, cup, ...)")
	}
	mealAddCmd.Flags().Float64Var(&mealPer, "per", 100, "Reference amount the nutrients are given for")
	mealAddCmd.Flags().StringVar(&mealPerUnit, "per-unit", "g", "Unit of --per")
	mealAddCmd.Flags().Float64Var(&mealDensity, "density", 0, "Density in g/ml for mass/volume conversion")
	mealAddCmd.Flags().StringToStringVar(&mealNutrients, "nutrient", nil, "Nutrient per reference amount, key=value (repeatable)")
	mealAddCmd.Flags().Float64Var(&mealCalories, "calories", 0, "Calories (kcal) per reference amount")
	mealAddCmd.Flags().Float64Var(&mealProtein, "protein", 0, "Protein (g) per reference amount")
	mealAddCmd.Flags().Float64Var(&mealCarbs, "carbs", 0, "Total carbs (g) per reference amount")
	mealAddCmd.Flags().Float64Var(&mealFat, "fat", 0, "Total fat (g) per reference amount")
	mealLookupCmd.Flags().BoolVar(&mealLog, "log", false, "Also log the food as a meal")
	mealSearchCmd.Flags().IntVar(&mealLimit, "limit", 10, "Maximum results")
}

func mealNutrientFlags(cmd *cobra.Command) (model.Nutrients, error) {
	out := model.Nutrients{}
	for key, raw := range mealNutrients {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --nutrient %s=%q", key, raw)
		}
		out[strings.ToLower(strings.TrimSpace(key))] = v
	}
	for _, f := range []struct {
		flag  string
		key   string
		value float64
	}{
		{"calories", health.NutrientCalories, mealCalories},
		{"protein", health.NutrientProtein, mealProtein},
		{"carbs", health.NutrientCarbs, mealCarbs},
		{"fat", health.NutrientFat, mealFat},
	} {
		if cmd.Flags().Changed(f.flag) {
			out[f.key] = f.value
		}
	}
	return out, nil
}

var promptFoodPattern = regexp.MustCompile(`^\s*([0-9]*\.?[0-9]+)\s*([^\s0-9.]+)\s+(.+?)\s*$`)

func parsePromptFood(arg string) (service.PromptFood, error) {
	m := promptFoodPattern.FindStringSubmatch(arg)
	if m == nil {
		return service.PromptFood{}, fmt.Errorf("invalid food %q (expected e.g. \"150g rice\")", arg)
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return service.PromptFood{}, fmt.Errorf("invalid amount in %q", arg)
	}
	return service.PromptFood{Name: m[3], Amount: amount, Unit: m[2]}, nil
}

func printMeal(cmd *cobra.Command, meal model.Meal) error {
	if mealJSON {
		return printJSON(cmd.OutOrStdout(), meal)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Logged %s (%g %s) id=%s\n", meal.Name, meal.ServingEaten.Value.Float(), meal.ServingEaten.Unit, meal.ID)
	keys := make([]string, 0, len(meal.Level1))
	for k := range meal.Level1 {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return nutrientOrder(keys[i]) < nutrientOrder(keys[j]) })
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %.1f %s\n", k, meal.Level1[k], health.NutrientUnit(k))
	}
	return nil
}

func nutrientOrder(key string) int {
	for i, k := range health.NutrientKeys {
		if k == key {
			return i
		}
	}
	return len(health.NutrientKeys)
}

func printFood(cmd *cobra.Command, f service.FoodResult) {
	out := cmd.OutOrStdout()
	source := "live"
	if f.FromCache {
		source = "cache"
	}
	fmt.Fprintf(out, "Provider: %s (%s)\n", f.Provider, source)
	fmt.Fprintf(out, "Barcode: %s\n", f.Barcode)
	fmt.Fprintf(out, "Food: %s\n", f.Name)
	fmt.Fprintf(out, "Brand: %s\n", f.Brand)
	fmt.Fprintf(out, "Serving: %.2f %s\n", f.ServingAmount, f.ServingUnit)
	fmt.Fprintf(out, "Completeness: %s\n", f.Completeness)
	for _, k := range health.NutrientKeys {
		if v, ok := f.Per100[k]; ok {
			fmt.Fprintf(out, "  %s per 100: %.1f %s\n", k, v, health.NutrientUnit(k))
		}
	}
}
