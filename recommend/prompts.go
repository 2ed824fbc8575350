package recommend

import (
	"fmt"
	"strings"

	"github.com/imkonsowa/food-recs/models"
)

const (
	defaultCalorieRange = "200-3000"
	defaultBudgetRange  = "$5-$100"
	defaultPriceCeiling = "100"
)

var recommendationPrompt = `You are a nutrition-focused assistant.

Restaurants:
%s
Constraints:
- %s
- %s

For EACH restaurant above, in the same order, suggest exactly ONE healthy menu item or substitution that satisfies both constraints.

Output format rules:
- Exactly %d lines, one line per restaurant, in the order listed.
- Each line has exactly four comma-separated fields in this order: restaurant_name,dish_name,calories,price
- restaurant_name is copied exactly as listed above.
- calories is a number only, price is a number only without a currency symbol.
- If you are unsure of a price, give a realistic estimate between 5 and %s.
- Do not use commas inside any field.
- No markdown, no code fences, no headers, no numbering, no extra commentary.

Example line:
Example Grill,Grilled chicken salad with dressing on the side,450,11.50
`

// BuildRecommendationPrompt asks for one suggestion per restaurant, in the
// order given, as flat four-field CSV lines. Non-positive limits fall back to
// the default ranges.
func BuildRecommendationPrompt(restaurants []string, cals int, budget float64) string {
	var list strings.Builder
	for _, name := range restaurants {
		list.WriteString(name)
		list.WriteString("\n")
	}

	calories := "Calories per dish: " + defaultCalorieRange
	if cals > 0 {
		calories = fmt.Sprintf("Maximum calories per dish: %d", cals)
	}

	price := "Price per dish: " + defaultBudgetRange
	ceiling := defaultPriceCeiling
	if budget > 0 {
		ceiling = formatAmount(budget)
		price = "Maximum price per dish: $" + ceiling
	}

	return fmt.Sprintf(recommendationPrompt, list.String(), calories, price, len(restaurants), ceiling)
}

// BuildSuggestionPrompt asks for a single healthy order at one restaurant.
// Empty limits fall back to broad default ranges.
func BuildSuggestionPrompt(restaurant, cals, budget string) string {
	if strings.TrimSpace(cals) == "" {
		cals = defaultCalorieRange
	}
	if strings.TrimSpace(budget) == "" {
		budget = defaultBudgetRange
	} else if !strings.HasPrefix(budget, "$") {
		budget = "$" + budget
	}

	return fmt.Sprintf("Suggest a healthy order or substitution under %s calories and %s budget for the restaurant: %s.\n"+
		"Ensure the only thing listed is the healthy order or substitution with no unnecessary text. No markdown.\n",
		cals, budget, restaurant)
}

func BuildDishesPrompt(cuisine string, store models.Candidate, budget float64) string {
	return fmt.Sprintf("You are a helpful chef assistant.\n"+
		"Given the grocery store '%s' at '%s', generate %d %s recipes that can be made within a budget of $%s. "+
		"Provide the recipe names in a comma separated list of strings.\n"+
		"Ensure the only thing listed are the recipe names and commas like a comma separated list.\n",
		store.Name, store.Address, dishCount, cuisine, formatAmount(budget))
}

func BuildRecipePrompt(dish string, store models.Candidate, budget float64) string {
	return fmt.Sprintf("You are a helpful chef assistant.\n"+
		"Given the grocery store '%s' at '%s',\n"+
		"Generate a full recipe for %s that can be made within a budget of $%s.\n"+
		"Stay professional and minimize filler. No introduction.\n"+
		"For this recipe, only provide:\n"+
		"- Recipe name\n"+
		"- List of ingredients with approximate quantity and cost (Be as specific as possible given the information. Use brand names if possible)\n"+
		"- Brief cooking instructions\n"+
		"- Estimated total cost\n",
		store.Name, store.Address, dish, formatAmount(budget))
}

func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	return strings.TrimSuffix(s, ".00")
}
