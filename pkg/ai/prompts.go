package ai

const JudgeSystemPrompt = `You are a SysML modeling expert who decides whether two model elements extracted from different diagrams describe the same real-world concept. You answer only with JSON.`

const JudgePrompt = `
# Task Context
Several SysML diagrams of one system were extracted independently. Each extraction names its elements slightly differently. You receive pairs of elements of the same SysML type whose descriptions are nearly identical.

# Background Data
%s

# Detailed Task Description & Rules
- For every pair decide whether element A and element B are the same concept.
- The qualified key "Type::Outer.Inner.Name" shows where an element lives. Different owners usually mean different concepts.
- Treat spelling variants, abbreviations and added suffixes ("Motor" vs "MotorUnit") as the same concept only when the descriptions agree.
- Do NOT merge elements that are merely related (a part and its whole, a requirement and the block satisfying it).
- When unsure, answer false. A missed merge is cheaper than a wrong one.

# Immediate Task Description or Request
Return a JSON array with exactly one object per pair:
[{"index": <pair index>, "same_entity": true|false, "reasoning": "<one sentence>"}]
`

const RepairSystemPrompt = `You are a SysML modeling expert repairing broken references in an extracted model. You answer only with JSON.`

const RepairPrompt = `
# Task Context
An element of an extracted SysML model references an id that does not exist. Pick the existing element it most likely meant.

# Background Data
Element id: %s
Element type: %s
Element name: %s
Element description: %s
Broken field: %s
Broken value: %s

Candidates (id | type | name):
%s

# Detailed Task Description & Rules
- Choose exactly one candidate id from the list, copied verbatim.
- Prefer candidates whose name matches the words in the broken value and the element's purpose.
- If no candidate fits, return an empty chosenId.

# Immediate Task Description or Request
Return a JSON object {"chosenId": "<id or empty>", "reasoning": "<one sentence>"}.
`
