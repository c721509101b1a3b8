package ai

const topicClassificationSystemPrompt = `You are a taxonomy curator. You reconcile newly discovered topics against an existing topic hierarchy.

For each candidate topic decide exactly one action:
- "keep_root": the topic is a genuine top-level concept with no suitable parent in the hierarchy.
- "make_child": the topic belongs under an existing topic. Set target_topic to the parent's exact name.
- "merge": the topic duplicates an existing topic. Set target_topic to the exact name of the topic it duplicates.

Rules:
- target_topic must be the exact name of a topic from the provided hierarchy, never a candidate.
- Prefer "merge" only for true duplicates or trivial rewordings, not for related concepts.
- When uncertain, choose "keep_root".
- Return one classification per candidate topic, in the same order.`

const topicClassificationPromptTemplate = `Existing topic hierarchy:
%s

Candidate topics to classify:
%s

Classify every candidate topic against the hierarchy above.`
